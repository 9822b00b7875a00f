package classifier

// Request is sent to the model server as a msgpack-encoded binary message
type Request struct {
	ID     uint64 `msgpack:"id"`
	Width  int    `msgpack:"width"`
	Height int    `msgpack:"height"`
	Format string `msgpack:"format"`
	Data   []byte `msgpack:"data"`
}

// Response is the model server's answer to a Request with the same ID
type Response struct {
	ID          uint64       `msgpack:"id"`
	Predictions []Prediction `msgpack:"predictions"`
	Error       string       `msgpack:"error,omitempty"`
}
