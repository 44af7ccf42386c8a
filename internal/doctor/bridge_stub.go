//go:build !linux

package doctor

import "errors"

func bridgeLookup(string) (string, error) {
	return "", errors.New("bridge inspection is linux only")
}
