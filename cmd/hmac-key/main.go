// Package main provides a one-shot utility for token secret generation.
//
// It emits the HMAC secret shared by the login and table surfaces.
package main

import (
	"os"

	"github.com/hanulsoft/jantable/internal/platform/config"
	"github.com/hanulsoft/jantable/internal/tools/hmackey"
)

func main() {
	if err := hmackey.Run(os.Stdout, nil); err != nil {
		config.Exitf("generate token secret: %v", err)
	}
}
