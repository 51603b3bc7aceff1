package cmd

import "errors"

var ErrUnsupportedProvider = errors.New("unsupported provider")
