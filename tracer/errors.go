package tracer

import "errors"

var (
	ErrNotSetup    = errors.New("tracer: tracer has not been set up")
	ErrTracerBusy  = errors.New("tracer: worker did not accept block request")
	ErrNoSceneData = errors.New("tracer: no scene data")
)
