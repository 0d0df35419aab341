package playback

// Sink is the audio output. The platform implementations live behind
// build tags; FakeSink serves tests and the headless driver.
type Sink interface {
	// Open prepares an output stream for interleaved 16-bit PCM.
	Open(sampleRate, channels int) (SinkStream, error)
}

// SinkStream accepts PCM in order. Write blocks for backpressure;
// Close drains what was written and releases the device.
type SinkStream interface {
	Write(samples []int16) error
	Close() error
}
