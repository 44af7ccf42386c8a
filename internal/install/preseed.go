package install

import (
	"fmt"

	"github.com/google/renameio/v2"
	"gopkg.in/yaml.v3"
)

// Preseed is the declarative first-run configuration consumed by the
// daemon's init, predefining its API address, storage pool, and network
// bridge.
type Preseed struct {
	Config       map[string]string    `yaml:"config"`
	StoragePools []PreseedStoragePool `yaml:"storage_pools"`
	Networks     []PreseedNetwork     `yaml:"networks"`
}

type PreseedStoragePool struct {
	Name   string `yaml:"name"`
	Driver string `yaml:"driver"`
}

type PreseedNetwork struct {
	Name   string            `yaml:"name"`
	Type   string            `yaml:"type"`
	Config map[string]string `yaml:"config"`
}

// DefaultPreseed builds the fixed first-run schema: API on all interfaces,
// a dir-backed storage pool, and a bridge with automatic addressing.
func DefaultPreseed(network, storage string) Preseed {
	return Preseed{
		Config: map[string]string{
			"core.https_address":  "0.0.0.0",
			"core.trust_password": "",
		},
		StoragePools: []PreseedStoragePool{
			{Name: storage, Driver: "dir"},
		},
		Networks: []PreseedNetwork{
			{
				Name: network,
				Type: "bridge",
				Config: map[string]string{
					"ipv4.address": "auto",
					"ipv6.address": "auto",
				},
			},
		},
	}
}

// WritePreseed renders the preseed as YAML and writes it atomically.
func WritePreseed(path string, p Preseed) error {
	data, err := yaml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal preseed: %w", err)
	}
	if err := renameio.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write preseed %s: %w", path, err)
	}
	return nil
}
