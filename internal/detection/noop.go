package detection

// NoOpEngine reports every payload as safe. It backs the "off" mode and
// stands in for a real engine in tests of the adapters.
type NoOpEngine struct{}

func (NoOpEngine) Inspect(string, string) Result { return Safe() }

func (NoOpEngine) InspectBytes([]byte, string) Result { return Safe() }
