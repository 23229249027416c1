package config

// MaxResolveDepth bounds alias-chain walks in delta resolvers. A chain
// longer than this means the caller built a cyclic resolver; resolution
// panics with a diagnostic instead of looping.
const MaxResolveDepth = 4096

// DefaultInlineLevel is the priority level attached to an inline entry
// when the elaborator does not request a specific one.
const DefaultInlineLevel = 100
