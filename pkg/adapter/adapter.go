// Package adapter provides the deployment target contract and the registry
// of target implementations.
//
// Concrete adapters live in pkg/adapters/ subdirectories and register
// themselves from init(). Import them with a blank identifier:
//
//	import _ "github.com/leapstack-labs/ldmgen/pkg/adapters/duckdb"
package adapter

import (
	"github.com/leapstack-labs/ldmgen/pkg/core"
)

type (
	// Adapter is a deployment target. See core.Adapter.
	Adapter = core.Adapter

	// Config is the connection configuration of an adapter.
	Config = core.AdapterConfig
)
