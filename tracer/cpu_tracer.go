package tracer

import (
	"errors"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/achilleasa/hptrace/asset/compiler/index"
	"github.com/achilleasa/hptrace/asset/scene"
	"github.com/achilleasa/hptrace/log"
	"golang.org/x/exp/rand"
)

var (
	ErrNoSceneData    = errors.New("tracer: no scene data uploaded")
	ErrNotInitialized = errors.New("tracer: tracer not set up")
	ErrQueueFull      = errors.New("tracer: block request queue is full")
)

// Relative tolerance used when comparing indexed and brute-force hit distances.
const verifyTolerance = 1e-4

// A tracer that executes the traversal protocol on the CPU. It serves as the
// reference consumer of the flattened index buffers.
type cpuTracer struct {
	logger log.Logger

	sync.Mutex
	wg sync.WaitGroup

	// The tracer id.
	id string

	// A buffer for queuing updates. Updates are grouped by type and
	// latest updates always overwrite the previous ones.
	updateBuffer map[ChangeType]interface{}

	// A channel for receiving block requests from the renderer.
	blockReqChan chan BlockRequest

	// A channel for signaling the worker to exit.
	closeChan chan struct{}

	// Statistics for last rendered block.
	stats *Stats

	// Frame dims and output buffer.
	frameW, frameH uint32
	depthBuffer    []float32

	// The traversed scene data and camera. These are only accessed by the
	// worker go-routine.
	sceneData sceneData
	camera    *Camera
}

// Create a new cpu tracer.
func NewCPUTracer(id string) Tracer {
	return &cpuTracer{
		logger:       log.New(fmt.Sprintf("cpu tracer (%s)", id)),
		id:           id,
		blockReqChan: make(chan BlockRequest, 1),
		updateBuffer: make(map[ChangeType]interface{}),
		stats:        &Stats{},
	}
}

// Get tracer id.
func (tr *cpuTracer) Id() string {
	return tr.id
}

// All cpu tracers are equally fast.
func (tr *cpuTracer) SpeedEstimate() float32 {
	return 1.0
}

// Setup the tracer and start its worker.
func (tr *cpuTracer) Setup(frameW, frameH uint32, depthBuffer []float32) error {
	tr.Lock()
	defer tr.Unlock()

	if frameW == 0 || frameH == 0 {
		return fmt.Errorf("tracer: invalid frame dimensions %dx%d", frameW, frameH)
	}
	if len(depthBuffer) < int(frameW*frameH) {
		return fmt.Errorf("tracer: depth buffer holds %d values; expected at least %d", len(depthBuffer), frameW*frameH)
	}

	tr.frameW, tr.frameH = frameW, frameH
	tr.depthBuffer = depthBuffer

	if tr.closeChan == nil {
		tr.startWorker()
	}

	return nil
}

// Shutdown and cleanup tracer.
func (tr *cpuTracer) Close() {
	tr.Lock()
	closeChan := tr.closeChan
	tr.closeChan = nil
	tr.Unlock()

	// If the worker is running shut it down and wait for it to ack
	if closeChan != nil {
		closeChan <- struct{}{}
		<-closeChan
		tr.wg.Wait()
	}
}

// Enqueue block request.
func (tr *cpuTracer) Enqueue(blockReq BlockRequest) {
	select {
	case tr.blockReqChan <- blockReq:
	default:
		// drop the request if the worker is still busy
		tr.logger.Error("request processor did not receive block request")
		blockReq.ErrChan <- ErrQueueFull
	}
}

// Append a change to the tracer's update buffer.
func (tr *cpuTracer) AppendChange(change ChangeType, data interface{}) {
	tr.Lock()
	defer tr.Unlock()

	tr.updateBuffer[change] = data
}

// Apply all pending changes from the update buffer.
func (tr *cpuTracer) ApplyPendingChanges() error {
	tr.Lock()
	defer tr.Unlock()

	for change, data := range tr.updateBuffer {
		switch change {
		case SetScene:
			sc, ok := data.(*scene.Scene)
			if !ok {
				return fmt.Errorf("tracer: SetScene expects a *scene.Scene; got %T", data)
			}
			tr.sceneData.scene = sc
		case SetIndex:
			buffers, ok := data.(*index.Buffers)
			if !ok {
				return fmt.Errorf("tracer: SetIndex expects a *index.Buffers; got %T", data)
			}
			tr.sceneData.buffers = buffers
		case UpdateCamera:
			camera, ok := data.(*Camera)
			if !ok {
				return fmt.Errorf("tracer: UpdateCamera expects a *tracer.Camera; got %T", data)
			}
			tr.camera = camera
		default:
			return fmt.Errorf("tracer: unsupported change type %d", change)
		}
	}

	tr.updateBuffer = make(map[ChangeType]interface{})
	return nil
}

// Retrieve last frame statistics.
func (tr *cpuTracer) Stats() *Stats {
	return tr.stats
}

// Spawn a go-routine to process block render requests. Must be called
// while holding tr.Lock().
func (tr *cpuTracer) startWorker() {
	closeChan := make(chan struct{})
	tr.closeChan = closeChan
	readyChan := make(chan struct{})
	tr.wg.Add(1)
	go func() {
		defer tr.wg.Done()
		close(readyChan)
		for {
			select {
			case blockReq := <-tr.blockReqChan:
				startTime := time.Now()

				// Apply any pending changes
				if err := tr.ApplyPendingChanges(); err != nil {
					blockReq.ErrChan <- err
					continue
				}

				stats, err := tr.renderBlock(&blockReq)
				if err != nil {
					blockReq.ErrChan <- err
					continue
				}

				stats.BlockH = blockReq.BlockH
				stats.BlockTime = time.Since(startTime).Nanoseconds()
				tr.stats = stats

				blockReq.DoneChan <- blockReq.BlockH
			case <-closeChan:
				// Ack close
				closeChan <- struct{}{}
				return
			}
		}
	}()

	// Wait for go-routine to start
	<-readyChan
}

// Trace one primary ray per pixel for the rows of a block.
func (tr *cpuTracer) renderBlock(blockReq *BlockRequest) (*Stats, error) {
	if tr.sceneData.scene == nil || tr.sceneData.buffers == nil || tr.camera == nil {
		return nil, ErrNoSceneData
	}
	if tr.depthBuffer == nil {
		return nil, ErrNotInitialized
	}
	if blockReq.BlockY+blockReq.BlockH > tr.frameH {
		return nil, fmt.Errorf("tracer: block rows [%d, %d) exceed frame height %d", blockReq.BlockY, blockReq.BlockY+blockReq.BlockH, tr.frameH)
	}

	var rng *rand.Rand
	if blockReq.FrameCount > 0 {
		rng = rand.New(rand.NewSource(uint64(blockReq.Seed)))
	}

	stats := &Stats{}
	for y := blockReq.BlockY; y < blockReq.BlockY+blockReq.BlockH; y++ {
		for x := uint32(0); x < tr.frameW; x++ {
			var jx, jy float32 = 0.5, 0.5
			if rng != nil {
				jx, jy = rng.Float32(), rng.Float32()
			}
			ray := tr.camera.Ray(float32(x)+jx, float32(y)+jy, tr.frameW, tr.frameH)

			hit, steps := ClosestHit(tr.sceneData.buffers, tr.sceneData.scene, ray)
			stats.Rays++
			stats.Steps += uint64(steps)
			if hit.Ok() {
				stats.Hits++
			}

			if blockReq.Verify && !sameHit(hit, BruteForce(tr.sceneData.scene, ray)) {
				stats.Mismatches++
				tr.logger.Debugf("pixel (%d, %d): indexed hit %+v does not match brute-force hit", x, y, hit)
			}

			tr.depthBuffer[y*tr.frameW+x] = hit.Distance
		}
	}

	return stats, nil
}

// Compare two hits allowing for floating point error in the distance.
func sameHit(h1, h2 Hit) bool {
	if h1.Ok() != h2.Ok() {
		return false
	}
	if !h1.Ok() {
		return true
	}
	diff := math.Abs(float64(h1.Distance - h2.Distance))
	return diff <= verifyTolerance*math.Max(1, float64(h2.Distance))
}
