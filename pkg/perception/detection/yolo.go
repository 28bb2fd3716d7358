package detection

import (
	"context"
	"fmt"
	"image"
	"os"
	"sync"

	"gocv.io/x/gocv"
)

// personClassID is the COCO class index for "person".
const personClassID = 0

// YOLOConfig holds YOLO detector configuration.
type YOLOConfig struct {
	ModelPath        string  `yaml:"model_path"`
	CameraDevice     int     `yaml:"camera_device"`
	FrameWidth       int     `yaml:"frame_width"`
	FrameHeight      int     `yaml:"frame_height"`
	ConfidenceThresh float32 `yaml:"confidence_thresh"`
	NMSThresh        float32 `yaml:"nms_thresh"`
	InputWidth       int     `yaml:"input_width"`
	InputHeight      int     `yaml:"input_height"`
	Flip             bool    `yaml:"flip"` // Camera mounted upside down
}

// DefaultYOLOConfig returns production defaults for YOLOv8n on the Pi.
func DefaultYOLOConfig() YOLOConfig {
	return YOLOConfig{
		ModelPath:        "models/yolov8n.onnx",
		CameraDevice:     0,
		FrameWidth:       640,
		FrameHeight:      480,
		ConfidenceThresh: 0.5,
		NMSThresh:        0.45,
		InputWidth:       640,
		InputHeight:      640,
	}
}

// YOLO detects people with a YOLOv8 ONNX model and a local camera. One
// Poll call captures one frame and runs one inference.
type YOLO struct {
	cfg       YOLOConfig
	net       gocv.Net
	capture   *gocv.VideoCapture
	frame     gocv.Mat
	inputSize image.Point
	mu        sync.Mutex
}

// NewYOLO opens the camera and loads the model. Both failures are fatal;
// the orchestrator does not start tracking without a working detector.
func NewYOLO(cfg YOLOConfig) (*YOLO, error) {
	if _, err := os.Stat(cfg.ModelPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("detection: model file not found: %s", cfg.ModelPath)
	}

	net := gocv.ReadNetFromONNX(cfg.ModelPath)
	if net.Empty() {
		return nil, fmt.Errorf("detection: failed to load model from %s", cfg.ModelPath)
	}
	net.SetPreferableBackend(gocv.NetBackendDefault)
	net.SetPreferableTarget(gocv.NetTargetCPU)

	capture, err := gocv.OpenVideoCapture(cfg.CameraDevice)
	if err != nil {
		net.Close()
		return nil, fmt.Errorf("detection: open camera %d: %w", cfg.CameraDevice, err)
	}
	capture.Set(gocv.VideoCaptureFrameWidth, float64(cfg.FrameWidth))
	capture.Set(gocv.VideoCaptureFrameHeight, float64(cfg.FrameHeight))

	return &YOLO{
		cfg:       cfg,
		net:       net,
		capture:   capture,
		frame:     gocv.NewMat(),
		inputSize: image.Pt(cfg.InputWidth, cfg.InputHeight),
	}, nil
}

// Poll captures a frame and returns the best person detection, if any.
func (y *YOLO) Poll(ctx context.Context) (Detection, bool, error) {
	y.mu.Lock()
	defer y.mu.Unlock()

	if ctx.Err() != nil {
		return Detection{}, false, ctx.Err()
	}

	if ok := y.capture.Read(&y.frame); !ok || y.frame.Empty() {
		return Detection{}, false, fmt.Errorf("detection: camera read failed")
	}
	if y.cfg.Flip {
		gocv.Flip(y.frame, &y.frame, -1)
	}

	imgW := float32(y.frame.Cols())

	blob := gocv.BlobFromImage(y.frame, 1.0/255.0, y.inputSize, gocv.NewScalar(0, 0, 0, 0), true, false)
	defer blob.Close()

	y.net.SetInput(blob, "")
	output := y.net.Forward("")
	defer output.Close()

	boxes, confidences := y.parsePersons(output, imgW, float32(y.frame.Rows()))
	if len(boxes) == 0 {
		return Detection{}, false, nil
	}

	indices := gocv.NMSBoxes(boxes, confidences, y.cfg.ConfidenceThresh, y.cfg.NMSThresh)
	if len(indices) == 0 {
		return Detection{}, false, nil
	}

	best := bestBox(boxes, confidences, indices)
	centerX := float32(boxes[best].Min.X+boxes[best].Max.X) / 2

	return Detection{
		OffsetPx:   int(centerX - imgW/2),
		Confidence: float64(confidences[best]),
	}, true, nil
}

// parsePersons extracts person boxes from the YOLOv8 output tensor.
// Output shape is [1, 84, 8400]: 4 bbox values then 80 class scores, for
// 8400 candidate detections.
func (y *YOLO) parsePersons(output gocv.Mat, imgW, imgH float32) ([]image.Rectangle, []float32) {
	var boxes []image.Rectangle
	var confidences []float32

	rows := output.Cols() // 8400 candidates
	data, err := output.DataPtrFloat32()
	if err != nil {
		return nil, nil
	}

	for i := 0; i < rows; i++ {
		score := data[(4+personClassID)*rows+i]
		if score < y.cfg.ConfidenceThresh {
			continue
		}

		// Center-format bbox scaled from model input to frame size.
		cx := data[0*rows+i]
		cy := data[1*rows+i]
		w := data[2*rows+i]
		h := data[3*rows+i]

		x1 := int((cx - w/2) * imgW / float32(y.cfg.InputWidth))
		y1 := int((cy - h/2) * imgH / float32(y.cfg.InputHeight))
		x2 := int((cx + w/2) * imgW / float32(y.cfg.InputWidth))
		y2 := int((cy + h/2) * imgH / float32(y.cfg.InputHeight))

		boxes = append(boxes, image.Rect(x1, y1, x2, y2))
		confidences = append(confidences, score)
	}

	return boxes, confidences
}

// bestBox scores NMS survivors by confidence*0.7 + area*0.3 and returns
// the index of the winner, so the camera prefers the close, confident
// person when several are visible.
func bestBox(boxes []image.Rectangle, confidences []float32, indices []int) int {
	maxArea := 0
	for _, idx := range indices {
		if a := boxes[idx].Dx() * boxes[idx].Dy(); a > maxArea {
			maxArea = a
		}
	}

	best := indices[0]
	bestScore := float32(-1)
	for _, idx := range indices {
		area := float32(boxes[idx].Dx()*boxes[idx].Dy()) / float32(maxArea)
		score := confidences[idx]*0.7 + area*0.3
		if score > bestScore {
			bestScore = score
			best = idx
		}
	}
	return best
}

// Close releases the camera and the network.
func (y *YOLO) Close() error {
	y.mu.Lock()
	defer y.mu.Unlock()
	y.frame.Close()
	y.net.Close()
	return y.capture.Close()
}
