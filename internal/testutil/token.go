package testutil

// FixedTokenGenerator returns the same scratch token every time.
//
// This enables deterministic scenario runs: runs of a scenario are
// sequential and each drops its scratch graph, so reusing one token gives
// byte-identical logs and dumps across executions.
//
// Unlike distribution.FixedGenerator, which hands out a finite sequence,
// this generator never runs out.
//
// Thread-safety: FixedTokenGenerator is stateless and safe for concurrent use.
type FixedTokenGenerator struct {
	token string
}

// NewFixedTokenGenerator creates a generator for token. An empty token
// becomes "scenario".
func NewFixedTokenGenerator(token string) *FixedTokenGenerator {
	if token == "" {
		token = "scenario"
	}
	return &FixedTokenGenerator{token: token}
}

// Generate returns the fixed token.
//
// Implements distribution.TokenGenerator.
func (g *FixedTokenGenerator) Generate() string {
	return g.token
}
