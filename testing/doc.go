// Package testing provides testing utilities for code built on netkit.
//
// # Mocks
//
// The mocks subpackage provides testify-based mock implementations of the
// client's collaborators:
//   - Transport (transport.Transport)
//   - Decoder (codec.Decoder)
//   - FileSystem (httpclient.FileSystem)
//
// # Fixtures
//
// The fixtures subpackage provides pre-configured mocks for common scenarios
// (working, failing and flaky transports) and transport errors that classify
// as timeouts or network failures.
//
// # Usage
//
//	import (
//		"github.com/gaborage/netkit/testing/fixtures"
//		"github.com/gaborage/netkit/testing/mocks"
//	)
package testing
