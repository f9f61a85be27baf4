package memory

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// Seed describes the initial accounts of a simulated bank.
type Seed struct {
	Accounts []AccountSeed     `toml:"accounts"`
	Primary  map[string]string `toml:"primary"`
}

// AccountSeed describes one account.
type AccountSeed struct {
	Name      string             `toml:"name"`
	Aggregate bool               `toml:"aggregate"`
	Holders   map[string]float64 `toml:"holders"`
	Managers  []string           `toml:"managers"`
	Balances  map[string]float64 `toml:"balances"`
}

// LoadSeed reads a seed from a TOML file.
func LoadSeed(path string) (Seed, error) {
	var s Seed
	if _, err := toml.DecodeFile(path, &s); err != nil {
		return Seed{}, fmt.Errorf("memory: load seed %s: %w", path, err)
	}
	return s, nil
}

// ParseSeed decodes a seed from TOML text.
func ParseSeed(data string) (Seed, error) {
	var s Seed
	if _, err := toml.Decode(data, &s); err != nil {
		return Seed{}, fmt.Errorf("memory: parse seed: %w", err)
	}
	return s, nil
}

// FromSeed creates a bank populated from s.
func FromSeed(s Seed, opts ...Option) (*Bank, error) {
	b := New(opts...)
	for _, a := range s.Accounts {
		if a.Name == "" {
			return nil, fmt.Errorf("memory: seed account without name")
		}
		b.Open(a.Name, a.Aggregate)
		for owner, share := range a.Holders {
			if err := b.SetHolder(a.Name, owner, share); err != nil {
				return nil, err
			}
		}
		for _, m := range a.Managers {
			if err := b.AddManager(a.Name, m); err != nil {
				return nil, err
			}
		}
		for currency, amount := range a.Balances {
			if err := b.Deposit(a.Name, currency, amount); err != nil {
				return nil, err
			}
		}
	}
	for owner, name := range s.Primary {
		b.SetPrimary(owner, name)
	}
	return b, nil
}
