package core

type ContextKey string

const (
	CtxKeyUsername ContextKey = "username"
)
