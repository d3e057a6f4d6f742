// Package stream reads query results lazily, one row or one batch at a time.
//
// A Streamer owns the rows and the connection opened by its Source. It moves
// through NotStarted, Streaming and finally Exhausted or Errored, and never
// restarts. The first Next enters Streaming before opening the source, so a
// source failure also ends in Errored by way of Streaming. The rows and connection are released as soon as the stream ends,
// fails, or is closed:
//
//	s := stream.NewRowStreamer(source, logger)
//	defer s.Close()
//	for s.Next(ctx) {
//		use(s.Value())
//	}
//	if err := s.Err(); err != nil {
//		...
//	}
package stream
