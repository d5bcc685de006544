package entity

import (
	"encoding/json"
	"testing"

	"github.com/ds124wfegd/image-studio/internal/pkg/bgremoval"
	"github.com/ds124wfegd/image-studio/internal/pkg/mask"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseNamed(t *testing.T) {
	tests := []struct {
		in   string
		want OperationSpec
	}{
		{"greyscale", Filter{Filter: FilterGreyscale}},
		{"negate", ColorAdjust{Adjust: AdjustNegate}},
		{"normalize", ColorAdjust{Adjust: AdjustNormalize}},
		{"sharpen", Filter{Filter: FilterSharpen}},
		{"blur", Filter{Filter: FilterBlur, Magnitude: 2}},
		{"blur:0.5", Filter{Filter: FilterBlur, Magnitude: 0.5}},
		{"flip", Flip{Axis: AxisVertical}},
		{" FLOP ", Flip{Axis: AxisHorizontal}},
		{"rotate:90", Rotate{Angle: 90, Background: white}},
		{"gamma:2.2", ColorAdjust{Adjust: AdjustGamma, Value: 2.2}},
		{"resize:800x600", Resize{Width: 800, Height: 600}},
		{"resize:x300", Resize{Height: 300}},
		{"sepia", Unknown{Name: "sepia"}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseNamed(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseNamedMalformed(t *testing.T) {
	for _, in := range []string{"blur:abc", "rotate", "greyscale:1", "resize:800", "gamma:"} {
		t.Run(in, func(t *testing.T) {
			op, err := ParseNamed(in)
			assert.Error(t, err)
			assert.Nil(t, op)
		})
	}
}

func TestParseNamedList(t *testing.T) {
	ops, err := ParseNamedList("greyscale, blur:1.5,,flop")
	require.NoError(t, err)
	require.Len(t, ops, 3)
	assert.Equal(t, KindFilter, ops[0].Kind())
	assert.Equal(t, Filter{Filter: FilterBlur, Magnitude: 1.5}, ops[1])
	assert.Equal(t, Flip{Axis: AxisHorizontal}, ops[2])
}

func TestValidate(t *testing.T) {
	radius := -1.0
	tests := []struct {
		name string
		op   OperationSpec
		ok   bool
	}{
		{"resize ok", Resize{Width: 10}, true},
		{"resize zero", Resize{}, false},
		{"resize bad fit", Resize{Width: 1, Height: 1, Fit: "stretch"}, false},
		{"crop negative left", Crop{Left: -1, Width: 1, Height: 1}, false},
		{"crop ok", Crop{Width: 1, Height: 1}, true},
		{"filter unknown", Filter{Filter: "emboss"}, false},
		{"blur negative", Filter{Filter: FilterBlur, Magnitude: -1}, false},
		{"composite without overlay", Composite{}, false},
		{"composite bad blend", Composite{Overlay: []byte{1}, Blend: "xor"}, false},
		{"flip bad axis", Flip{Axis: "diagonal"}, false},
		{"gamma out of range", ColorAdjust{Adjust: AdjustGamma, Value: 0.5}, false},
		{"colourspace cmyk", ColorSpace{Space: "cmyk"}, false},
		{"extract bad channel", ChannelOp{Op: ChannelExtract, Channel: "cyan"}, false},
		{"bandbool ok", ChannelOp{Op: ChannelBandBool, BoolOp: "eor"}, true},
		{"mask negative radius", Mask{Shape: mask.Circle, Radius: &radius}, false},
		{"mask bad shape", Mask{Shape: "hexagon"}, false},
		{"border zero", Border{}, false},
		{"watermark empty", Watermark{}, false},
		{"remove background threshold", RemoveBackground{Config: bgremoval.Config{Method: bgremoval.MethodThreshold, Threshold: 300}}, false},
		{"remove background accurate", RemoveBackground{Config: bgremoval.Config{Method: bgremoval.MethodAccurate}}, true},
		{"unknown", Unknown{Name: "sepia"}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.op.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestOperationDTOUnmarshal(t *testing.T) {
	var dtos []OperationDTO
	payload := `["greyscale", {"type": "resize", "width": 100}, {"type": "blur:3"}]`
	require.NoError(t, json.Unmarshal([]byte(payload), &dtos))
	require.Len(t, dtos, 3)
	assert.Equal(t, "greyscale", dtos[0].Type)
	assert.Equal(t, 100, dtos[1].Width)

	ops, err := ToSpecs(dtos)
	require.NoError(t, err)
	assert.Equal(t, Filter{Filter: FilterGreyscale}, ops[0])
	assert.Equal(t, Resize{Width: 100}, ops[1])
	assert.Equal(t, Filter{Filter: FilterBlur, Magnitude: 3}, ops[2])
}

func TestOperationDTODefaults(t *testing.T) {
	op, err := OperationDTO{Type: "border", Width: 5}.ToSpec()
	require.NoError(t, err)
	assert.Equal(t, Border{Width: 5, Height: 5, Color: black}, op)

	op, err = OperationDTO{Type: "watermark", Text: "hi"}.ToSpec()
	require.NoError(t, err)
	wm := op.(Watermark)
	assert.Equal(t, 48, wm.Style.FontSize)
	assert.Equal(t, 0.7, wm.Style.Opacity)
	assert.Equal(t, "southeast", wm.Style.Position)
	assert.Equal(t, white, wm.Style.Color)

	op, err = OperationDTO{Type: "mask", Shape: "star"}.ToSpec()
	require.NoError(t, err)
	assert.Equal(t, white, op.(Mask).Background)
}

func TestOperationDTOErrors(t *testing.T) {
	_, err := OperationDTO{Type: "rotate", Background: "notacolor"}.ToSpec()
	assert.Error(t, err)

	_, err = OperationDTO{Type: "filter", Kind: "emboss"}.ToSpec()
	assert.Error(t, err)

	_, err = ToSpecs([]OperationDTO{{Type: "greyscale"}, {Type: "crop"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "operation 1 (crop)")
}

// TestNamedFlipThroughDTO: bare имена из JSON и из формы дают те же шаги, что и ParseNamedList
func TestNamedFlipThroughDTO(t *testing.T) {
	var dtos []OperationDTO
	require.NoError(t, json.Unmarshal([]byte(`["flip","flop"]`), &dtos))
	ops, err := ToSpecs(dtos)
	require.NoError(t, err)

	named, err := ParseNamedList("flip,flop")
	require.NoError(t, err)
	assert.Equal(t, named, ops)
	assert.Equal(t, []OperationSpec{Flip{Axis: AxisVertical}, Flip{Axis: AxisHorizontal}}, ops)

	op, err := OperationDTO{Type: "flip", Axis: "both"}.ToSpec()
	require.NoError(t, err)
	assert.Equal(t, Flip{Axis: AxisBoth}, op)

	_, err = OperationDTO{Type: "flip", Axis: "diagonal"}.ToSpec()
	assert.Error(t, err)
}

func TestOperationDTOUnknownIsNotAnError(t *testing.T) {
	op, err := OperationDTO{Type: "sepia"}.ToSpec()
	require.NoError(t, err)
	assert.Equal(t, Unknown{Name: "sepia"}, op)
}

func TestPipelineTaskRoundTrip(t *testing.T) {
	task := PipelineTask{
		ID:         "t1",
		Source:     "uploads/t1.png",
		Operations: []OperationDTO{{Type: "flip"}, {Type: "resize", Width: 10, Height: 20}},
	}
	data, err := json.Marshal(task)
	require.NoError(t, err)

	var got PipelineTask
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, task, got)
}
