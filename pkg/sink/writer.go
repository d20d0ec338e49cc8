package sink

// streamWriter adapts one side (stdout or stderr) of a Sink to io.Writer,
// so the transaction engine can treat it like any other iostream.Sink.
type streamWriter struct {
	sink  *Sink
	isErr bool
}

func (w *streamWriter) Write(p []byte) (int, error) {
	return w.sink.Write(w.isErr, p)
}

// StdoutWriter returns an io.Writer that delivers to this sink's stdout
// side.
func (s *Sink) StdoutWriter() *streamWriter {
	return &streamWriter{sink: s, isErr: false}
}

// StderrWriter returns an io.Writer that delivers to this sink's stderr
// side.
func (s *Sink) StderrWriter() *streamWriter {
	return &streamWriter{sink: s, isErr: true}
}
