package backend

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"magtomo/internal/models"
	"magtomo/pkg/projection"
	"magtomo/pkg/tilt"
)

func delta(n, i, j, k int) *models.Volume {
	v := models.NewVolume(n, n, n)
	v.Set(i, j, k, 1)
	return v
}

func acquire(t *testing.T) Session {
	t.Helper()
	sess, err := NewCPU(2).Acquire(context.Background())
	require.NoError(t, err)
	t.Cleanup(func() { sess.Release() })
	return sess
}

func TestSessionRelease(t *testing.T) {
	sess, err := NewCPU(1).Acquire(context.Background())
	require.NoError(t, err)
	require.NoError(t, sess.Release())
	require.NoError(t, sess.Release())

	vol := models.NewVolume(4, 4, 4)
	vecs := projection.BuildAll([]tilt.Triple{{}})
	_, err = sess.ForwardProject(context.Background(), vol, vecs)
	assert.ErrorIs(t, err, ErrSessionReleased)
	_, err = sess.Reconstruct(context.Background(), models.NewProjectionStack(4, 1, 4), vecs, Options{Algorithm: AlgorithmBP})
	assert.ErrorIs(t, err, ErrSessionReleased)
}

func TestAcquireCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewCPU(1).Acquire(ctx)
	assert.Error(t, err)
}

func TestForwardProjectDeltaZeroTilt(t *testing.T) {
	const n = 9
	c := (n - 1) / 2
	sess := acquire(t)
	vecs := projection.BuildAll([]tilt.Triple{{}})

	stack, err := sess.ForwardProject(context.Background(), delta(n, c, c, c), vecs)
	require.NoError(t, err)
	require.Equal(t, n, stack.Rows)
	require.Equal(t, 1, stack.Tilts)

	// unit-spaced samples of the interpolation kernel integrate to one
	assert.InDelta(t, 1, stack.At(c, 0, c), 1e-9)
	assert.InDelta(t, 0, stack.At(c, 0, c+2), 1e-9)
	assert.InDelta(t, 0, stack.At(c+2, 0, c), 1e-9)
}

func TestForwardProjectRowRunsAgainstY(t *testing.T) {
	const n = 9
	c := (n - 1) / 2
	sess := acquire(t)
	vecs := projection.BuildAll([]tilt.Triple{{}})

	// a voxel at +y shows up at a smaller row index
	stack, err := sess.ForwardProject(context.Background(), delta(n, c, c+2, c), vecs)
	require.NoError(t, err)
	assert.InDelta(t, 1, stack.At(c-2, 0, c), 1e-9)

	// a voxel at +x shows up at a larger column index
	stack, err = sess.ForwardProject(context.Background(), delta(n, c+2, c, c), vecs)
	require.NoError(t, err)
	assert.InDelta(t, 1, stack.At(c, 0, c+2), 1e-9)
}

func TestForwardProjectUniformXTilt(t *testing.T) {
	const n = 16
	sess := acquire(t)
	vol := models.NewVolume(n, n, n)
	for i := range vol.Data {
		vol.Data[i] = 1
	}
	vecs := projection.BuildAll([]tilt.Triple{{X: 30}})

	stack, err := sess.ForwardProject(context.Background(), vol, vecs)
	require.NoError(t, err)
	// the central ray crosses the cube at 30 degrees to the z axis
	want := float64(n) / math.Cos(30*math.Pi/180)
	got := stack.At(n/2, 0, n/2)
	assert.InDelta(t, want, got, want*0.15)
}

func TestReconstructValidation(t *testing.T) {
	sess := acquire(t)
	vecs := projection.BuildAll([]tilt.Triple{{}})
	stack := models.NewProjectionStack(4, 1, 4)

	_, err := sess.Reconstruct(context.Background(), stack, vecs, Options{Algorithm: "FBP"})
	assert.ErrorContains(t, err, "unknown algorithm")

	_, err = sess.Reconstruct(context.Background(), stack, vecs, Options{Algorithm: AlgorithmSIRT})
	assert.ErrorContains(t, err, "iteration count")

	_, err = sess.Reconstruct(context.Background(), models.NewProjectionStack(4, 2, 4), vecs, Options{Algorithm: AlgorithmBP})
	assert.ErrorContains(t, err, "descriptors")
}

func TestSIRTRecoversDelta(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping solver test in short mode")
	}
	const n = 12
	c := 5
	scheme := []tilt.Triple{{X: -40}, {X: 0}, {X: 40}, {X: 0, Z: 90}, {X: 30, Z: 90}}
	vecs := projection.BuildAll(scheme)
	sess := acquire(t)

	truth := delta(n, c, c, c)
	stack, err := sess.ForwardProject(context.Background(), truth, vecs)
	require.NoError(t, err)

	recon, err := sess.Reconstruct(context.Background(), stack, vecs, Options{Algorithm: AlgorithmSIRT, Iterations: 30})
	require.NoError(t, err)

	bi, bj, bk, best := 0, 0, 0, math.Inf(-1)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			for k := 0; k < n; k++ {
				if v := recon.At(i, j, k); v > best {
					best, bi, bj, bk = v, i, j, k
				}
			}
		}
	}
	assert.Equal(t, [3]int{c, c, c}, [3]int{bi, bj, bk})
	assert.Greater(t, best, 0.0)
}

func TestCGLSReducesResidual(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping solver test in short mode")
	}
	const n = 10
	scheme := []tilt.Triple{{X: -30}, {X: 10}, {X: 50}}
	vecs := projection.BuildAll(scheme)
	sess := acquire(t)

	truth := delta(n, 4, 5, 4)
	stack, err := sess.ForwardProject(context.Background(), truth, vecs)
	require.NoError(t, err)

	recon, err := sess.Reconstruct(context.Background(), stack, vecs, Options{Algorithm: AlgorithmCGLS, Iterations: 10, RegularizationWeight: 1e-4})
	require.NoError(t, err)

	reproj, err := sess.ForwardProject(context.Background(), recon, vecs)
	require.NoError(t, err)

	var before, after float64
	for i := range stack.Data {
		before += stack.Data[i] * stack.Data[i]
		d := stack.Data[i] - reproj.Data[i]
		after += d * d
	}
	assert.Less(t, after, before*0.5)
}

func TestBPProducesMassAtDelta(t *testing.T) {
	const n = 8
	scheme := []tilt.Triple{{}, {X: 90}}
	vecs := projection.BuildAll(scheme)
	sess := acquire(t)

	truth := delta(n, 3, 3, 3)
	stack, err := sess.ForwardProject(context.Background(), truth, vecs)
	require.NoError(t, err)

	recon, err := sess.Reconstruct(context.Background(), stack, vecs, Options{Algorithm: AlgorithmBP})
	require.NoError(t, err)
	assert.Greater(t, recon.At(3, 3, 3), 0.0)
}
