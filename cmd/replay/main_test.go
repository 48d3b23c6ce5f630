package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pion/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesyncim/posekf/pkg/posekf"
	"github.com/thesyncim/posekf/pkg/posekf/session"
	"github.com/thesyncim/posekf/pkg/posekf/testutil"
)

func quietConfig() posekf.StabilizerConfig {
	config := posekf.DefaultStabilizerConfig()
	config.LoggerFactory = &logging.DefaultLoggerFactory{Writer: io.Discard}
	return config
}

func TestReplay_RecordedTrace(t *testing.T) {
	path := filepath.Join(t.TempDir(), "walk.json")
	trace := testutil.NewRecordedTrace(testutil.WalkingTrace(60, 30, 0.04, 17))
	trace[10].Landmarks = nil
	require.NoError(t, trace.Save(path))

	in, err := os.Open(path)
	require.NoError(t, err)
	defer in.Close()

	var out bytes.Buffer
	stats, err := replay(in, &out, quietConfig())
	require.NoError(t, err)
	assert.Equal(t, int64(59), stats.Frames, "the empty frame carries no pose")

	scanner := bufio.NewScanner(&out)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	var lines int
	for scanner.Scan() {
		lines++
		var msg session.SkeletonMessage
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &msg))
		assert.Equal(t, uint64(lines), msg.Seq)
		if lines == 11 {
			assert.False(t, msg.Valid)
			continue
		}
		require.True(t, msg.Valid, "line %d", lines)

		var p testutil.Pose
		for j, pos := range msg.Joints {
			p[j].X, p[j].Y, p[j].Z = pos.X, pos.Y, pos.Z
		}
		assert.Less(t, testutil.BoneLengthError(p), 1e-9, "line %d", lines)
	}
	require.NoError(t, scanner.Err())
	assert.Equal(t, 60, lines)
}

func TestReplay_MinVisibility(t *testing.T) {
	lms := testutil.Landmarks(testutil.StandingPose(0), 0, nil)
	lms[posekf.LandmarkMapping[posekf.Face]].Visibility = 0.1
	data, err := json.Marshal(testutil.NewRecordedTrace([][]*posekf.Landmark{lms}))
	require.NoError(t, err)

	config := quietConfig()
	config.MinVisibility = 0.5
	var out bytes.Buffer
	stats, err := replay(bytes.NewReader(data), &out, config)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.MissingLandmarks)
}

func TestReplay_EmptyArray(t *testing.T) {
	var out bytes.Buffer
	stats, err := replay(strings.NewReader(`[]`), &out, quietConfig())
	require.NoError(t, err)
	assert.Zero(t, stats.Frames)
	assert.Zero(t, out.Len())
}

func TestReplay_InvalidInput(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"empty", ``},
		{"object", `{"landmarks": []}`},
		{"bad frame", `[{"landmarks": "none"}]`},
		{"truncated", `[{"landmarks": []}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			_, err := replay(strings.NewReader(tt.input), &out, quietConfig())
			assert.Error(t, err)
		})
	}
}
