// Package chain defines the Bitcoin network identifiers used for address
// encoding. Network selection is always an explicit argument; the SDK keeps
// no ambient network configuration.
package chain

// Network identifies a Bitcoin network.
type Network string

const (
	// Mainnet is the production Bitcoin network.
	Mainnet Network = "mainnet"
	// Testnet is the public test network.
	Testnet Network = "testnet"
	// Regtest is a local regression-test network.
	Regtest Network = "regtest"
)

// Valid reports whether n is a known network.
func (n Network) Valid() bool {
	switch n {
	case Mainnet, Testnet, Regtest:
		return true
	}
	return false
}
