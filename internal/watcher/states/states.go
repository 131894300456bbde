package states

import am "github.com/pancsta/asyncmachine-go/pkg/machine"

// S is a type alias for a list of state names.
type S = am.S

// States map defines relations and properties of states.
var States = am.Struct{
	Init: {},
	Watching: {
		Require: S{Init},
	},
	ChangeEvent: {
		Require: S{Watching},
	},
	Debounced: {
		Require: S{Watching},
	},
	Reloading: {
		Require: S{Watching},
		Remove:  S{Reloaded},
	},
	Reloaded: {
		Remove: S{Reloading},
	},
}

// #region boilerplate defs

// Names of all the states (pkg enum).

const (
	Init        = "Init"
	Watching    = "Watching"
	ChangeEvent = "ChangeEvent"
	Debounced   = "Debounced"
	Reloading   = "Reloading"
	Reloaded    = "Reloaded"
)

// Names is an ordered list of all the state names.
var Names = S{
	am.Exception,
	Init,
	Watching,
	ChangeEvent,
	Debounced,
	Reloading,
	Reloaded,
}

// #endregion
