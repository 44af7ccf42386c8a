//go:build linux

package doctor

import (
	"fmt"

	"github.com/vishvananda/netlink"
)

func bridgeLookup(name string) (string, error) {
	link, err := netlink.LinkByName(name)
	if err != nil {
		if _, ok := err.(netlink.LinkNotFoundError); ok {
			return "", fmt.Errorf("interface %s does not exist; incus admin init creates it", name)
		}
		return "", fmt.Errorf("inspect %s: %w", name, err)
	}
	return fmt.Sprintf("%s, %s", link.Type(), link.Attrs().OperState), nil
}
