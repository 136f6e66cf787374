package options

// DefaultPipePath is where the hidproxy endpoint listens.
const DefaultPipePath = `\\.\pipe\ctaphid`
