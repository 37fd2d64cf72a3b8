/*
Package ports defines the driven ports (interfaces) for the Paddock pool.

These interfaces decouple the lease protocol from the backing store,
allowing the pool facade to work against any store offering ordered scored
membership with atomic multi-step operations (Redis sorted sets being the
reference substrate).

# Key Interfaces

  - PoolStore: The shared member -> available-at mapping with the atomic
    choose-and-lock, membership, and rotation operations.

The package also ships RunPoolStoreContract, a reusable test suite every
PoolStore implementation is expected to pass.
*/
package ports
