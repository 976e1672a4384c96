//go:build property
// +build property

// Package imgstate_test contains property-based tests for the fixed
// width hash rendering.
package imgstate_test

import (
	"crypto/sha256"
	"fmt"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"

	"github.com/fota-tools/fotactl/pkg/imgstate"
)

func genHash() gopter.Gen {
	return gen.SliceOfN(sha256.Size, gen.IntRange(0, 255)).Map(func(vals []int) []byte {
		hash := make([]byte, len(vals))
		for i, v := range vals {
			hash[i] = byte(v)
		}
		return hash
	})
}

func TestHashRenderingProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 500

	properties := gopter.NewProperties(parameters)

	properties.Property("rendering matches per-byte hex with padding", prop.ForAll(
		func(hash []byte) bool {
			var want strings.Builder
			for _, b := range hash {
				fmt.Fprintf(&want, "%02x", b)
			}
			got, err := imgstate.HashString(hash)
			return err == nil && got == want.String()
		},
		genHash(),
	))

	properties.Property("rendering is always full width lowercase hex", prop.ForAll(
		func(hash []byte) bool {
			got, err := imgstate.HashString(hash)
			if err != nil || len(got) != imgstate.HashHexLen {
				return false
			}
			for _, r := range got {
				if !strings.ContainsRune("0123456789abcdef", r) {
					return false
				}
			}
			return true
		},
		genHash(),
	))

	properties.Property("buffers below the required size are rejected", prop.ForAll(
		func(hash []byte, short int) bool {
			dst := make([]byte, short)
			_, err := imgstate.EncodeHash(dst, hash)
			return err != nil
		},
		genHash(),
		gen.IntRange(0, imgstate.HashHexLen),
	))

	properties.TestingRun(t)
}
