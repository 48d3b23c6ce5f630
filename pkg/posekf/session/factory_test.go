package session

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pion/webrtc/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesyncim/posekf/pkg/posekf"
	"github.com/thesyncim/posekf/pkg/posekf/testutil"
)

// --- Helper Functions ---

// newOfferer creates the browser side of a loopback connection.
func newOfferer(t *testing.T) *webrtc.PeerConnection {
	t.Helper()
	s := webrtc.SettingEngine{LoggerFactory: quietLogger}
	s.SetIncludeLoopbackCandidate(true)
	api := webrtc.NewAPI(webrtc.WithSettingEngine(s))

	pc, err := api.NewPeerConnection(webrtc.Configuration{})
	require.NoError(t, err)
	t.Cleanup(func() { _ = pc.Close() })
	return pc
}

// createOffer returns pc's offer once ICE gathering is complete.
func createOffer(t *testing.T, pc *webrtc.PeerConnection) webrtc.SessionDescription {
	t.Helper()
	offer, err := pc.CreateOffer(nil)
	require.NoError(t, err)

	gatherComplete := webrtc.GatheringCompletePromise(pc)
	require.NoError(t, pc.SetLocalDescription(offer))
	select {
	case <-gatherComplete:
	case <-time.After(10 * time.Second):
		t.Fatal("offerer ICE gathering timed out")
	}
	return *pc.LocalDescription()
}

func newTestFactory(t *testing.T, opts ...Option) *Factory {
	t.Helper()
	opts = append([]Option{WithLoggerFactory(quietLogger), WithLoopbackCandidates(true)}, opts...)
	f, err := NewFactory(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = f.Close() })
	return f
}

// =============================================================================
// Loopback Integration Tests
// =============================================================================

func TestFactory_LoopbackRoundTrip(t *testing.T) {
	frames := make(chan posekf.Frame, 64)
	f := newTestFactory(t, WithOnFrame(func(_ *Session, frame posekf.Frame) {
		frames <- frame
	}))

	offerer := newOfferer(t)
	dc, err := offerer.CreateDataChannel(DefaultChannelLabel, nil)
	require.NoError(t, err)

	trace := testutil.WalkingTrace(10, 30, 0.02, 9)
	replies := make(chan SkeletonMessage, len(trace))
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		var sk SkeletonMessage
		if err := json.Unmarshal(msg.Data, &sk); err == nil {
			replies <- sk
		}
	})
	dc.OnOpen(func() {
		for i, lms := range trace {
			data, _ := json.Marshal(FrameMessage{Seq: uint64(i + 1), Landmarks: lms})
			_ = dc.SendText(string(data))
		}
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	sess, answer, err := f.Accept(ctx, createOffer(t, offerer))
	require.NoError(t, err)
	require.NotNil(t, answer)
	assert.Equal(t, webrtc.SDPTypeAnswer, answer.Type)
	require.NoError(t, offerer.SetRemoteDescription(*answer))

	for i := range trace {
		select {
		case sk := <-replies:
			assert.Equal(t, uint64(i+1), sk.Seq, "replies arrive in order")
			assert.True(t, sk.Valid)
			assert.Less(t, testutil.BoneLengthError(skeletonPose(sk)), 1e-9)
		case <-time.After(15 * time.Second):
			t.Fatalf("timed out waiting for reply %d", i+1)
		}
	}
	assert.Len(t, frames, len(trace))

	sessions := f.Sessions()
	require.Len(t, sessions, 1)
	assert.Equal(t, sess.ID(), sessions[0].ID())
	assert.Equal(t, int64(len(trace)), sess.Stats().Pose.Frames)
}

func TestFactory_IgnoresOtherChannels(t *testing.T) {
	f := newTestFactory(t)

	offerer := newOfferer(t)
	dc, err := offerer.CreateDataChannel("chat", nil)
	require.NoError(t, err)

	opened := make(chan struct{})
	dc.OnOpen(func() {
		_ = dc.SendText(`{"seq": 1, "landmarks": []}`)
		close(opened)
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	sess, answer, err := f.Accept(ctx, createOffer(t, offerer))
	require.NoError(t, err)
	require.NoError(t, offerer.SetRemoteDescription(*answer))

	select {
	case <-opened:
	case <-time.After(15 * time.Second):
		t.Fatal("data channel did not open")
	}
	// Give the message time to arrive; it must not be processed.
	time.Sleep(200 * time.Millisecond)
	assert.Zero(t, sess.Stats().Messages)
}

func TestFactory_AcceptCanceledContext(t *testing.T) {
	f := newTestFactory(t)
	offerer := newOfferer(t)
	_, err := offerer.CreateDataChannel(DefaultChannelLabel, nil)
	require.NoError(t, err)
	offer := createOffer(t, offerer)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = f.Accept(ctx, offer)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, f.Sessions())
}

func TestFactory_AcceptInvalidOffer(t *testing.T) {
	f := newTestFactory(t)
	_, _, err := f.Accept(context.Background(), webrtc.SessionDescription{
		Type: webrtc.SDPTypeOffer,
		SDP:  "not sdp",
	})
	assert.Error(t, err)
	assert.Empty(t, f.Sessions())
}

func TestFactory_Close(t *testing.T) {
	f := newTestFactory(t)
	offerer := newOfferer(t)
	_, err := offerer.CreateDataChannel(DefaultChannelLabel, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_, _, err = f.Accept(ctx, createOffer(t, offerer))
	require.NoError(t, err)
	require.Len(t, f.Sessions(), 1)

	require.NoError(t, f.Close())
	assert.Empty(t, f.Sessions())

	late := newOfferer(t)
	_, err = late.CreateDataChannel(DefaultChannelLabel, nil)
	require.NoError(t, err)
	_, _, err = f.Accept(ctx, createOffer(t, late))
	assert.ErrorIs(t, err, ErrFactoryClosed)
}
