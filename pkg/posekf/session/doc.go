// Package session carries pose frames between a browser (or any WebRTC
// peer) and a posekf.Stabilizer over a Pion WebRTC data channel.
//
// Every accepted peer connection becomes a Session that owns exactly one
// Stabilizer, so concurrent peers never share filter state. The peer opens a
// data channel (labelled "pose" by default) and sends one JSON FrameMessage
// per video frame; the Session answers each with a JSON SkeletonMessage.
//
// # Quick Start
//
//	factory, err := session.NewFactory(
//	    session.WithLoggerFactory(loggerFactory),
//	    session.WithChannelLabel("pose"),
//	)
//	if err != nil {
//	    return err
//	}
//	defer factory.Close()
//
//	// offer is the peer's webrtc.SessionDescription, usually posted over HTTP.
//	sess, answer, err := factory.Accept(ctx, offer)
//	if err != nil {
//	    return err
//	}
//	log.Printf("session %s accepted", sess.ID())
//	// send answer back to the peer
//
// # Wire Format
//
// Request (text message on the data channel):
//
//	{"seq": 12, "landmarks": [{"x": 0.1, "y": -0.4, "z": 0.02, "visibility": 0.98}, ...]}
//
// Response:
//
//	{"seq": 12, "valid": true, "skipped": false, "missing": 0,
//	 "joints": [{"x": ..., "y": ..., "z": ...}, ...],
//	 "connections": [[8, 6], [6, 2], ...]}
//
// Landmarks follow the 33 point layout of the upstream estimator; only the
// 13 points listed in posekf.LandmarkMapping are read. A message that is not
// valid JSON is logged and dropped without a response.
//
// # Thread Safety
//
// pion delivers data channel messages from its own goroutines. A Session
// serializes message handling, so its Stabilizer always sees frames one at a
// time and in arrival order. Factory methods are safe for concurrent use.
package session
