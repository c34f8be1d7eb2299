//go:build js && wasm
// +build js,wasm

package main

import (
	"errors"
	"fmt"
	"syscall/js"

	"github.com/himanishpuri/songtag/pkg/songtag/audio"
	"github.com/himanishpuri/songtag/pkg/songtag/fingerprint"
	"github.com/himanishpuri/songtag/pkg/songtag/pipeline"
	"github.com/himanishpuri/songtag/pkg/songtag/signature"
)

// Error codes returned to JavaScript
const (
	ErrorNone = iota
	ErrorInvalidArgs
	ErrorResampleFailed
	ErrorTooShort
	ErrorSignatureFailed
)

// generateSignature signs Web Audio samples in the format /api/recognize
// accepts.
// Returns: {error: number, data: {uri, sampleMs, landmarks} | string}
func generateSignature(this js.Value, args []js.Value) any {
	if len(args) < 3 {
		return makeErrorResponse(ErrorInvalidArgs, "Expected 3 arguments: audioArray, sampleRate, channels")
	}

	audioDataJS := args[0]
	sampleRateJS := args[1]
	channelsJS := args[2]

	if audioDataJS.Type() != js.TypeObject {
		return makeErrorResponse(ErrorInvalidArgs, "audioArray must be an Array or Float32Array")
	}
	if sampleRateJS.Type() != js.TypeNumber || channelsJS.Type() != js.TypeNumber {
		return makeErrorResponse(ErrorInvalidArgs, "sampleRate and channels must be numbers")
	}

	sampleRate := sampleRateJS.Int()
	channels := channelsJS.Int()
	if sampleRate <= 0 {
		return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("Invalid sample rate: %d", sampleRate))
	}
	if channels < 1 || channels > 2 {
		return makeErrorResponse(ErrorInvalidArgs, fmt.Sprintf("Channels must be 1 (mono) or 2 (stereo), got: %d", channels))
	}

	length := audioDataJS.Length()
	if length == 0 {
		return makeErrorResponse(ErrorInvalidArgs, "audioArray is empty")
	}

	samples := make([]float64, length)
	for i := 0; i < length; i++ {
		samples[i] = audioDataJS.Index(i).Float()
	}
	if channels == 2 {
		samples = stereoToMono(samples)
	}

	mono, err := audio.Resample(samples, sampleRate, audio.SampleRate)
	if err != nil {
		return makeErrorResponse(ErrorResampleFailed, err.Error())
	}

	signed, err := pipeline.Sign(audio.ToPCM16(mono), fingerprint.DefaultDetectorConfig())
	if errors.Is(err, pipeline.ErrTooShort) {
		return makeErrorResponse(ErrorTooShort, err.Error())
	}
	if err != nil {
		return makeErrorResponse(ErrorSignatureFailed, fmt.Sprintf("Failed to sign audio: %v", err))
	}

	data := js.Global().Get("Object").New()
	data.Set("uri", signature.DataURI(signed.Signature))
	data.Set("sampleMs", signed.SampleMs)
	data.Set("landmarks", signed.Landmarks)

	result := js.Global().Get("Object").New()
	result.Set("error", ErrorNone)
	result.Set("data", data)
	return result
}

func stereoToMono(stereo []float64) []float64 {
	mono := make([]float64, len(stereo)/2)
	for i := range mono {
		mono[i] = (stereo[i*2] + stereo[i*2+1]) / 2
	}
	return mono
}

func makeErrorResponse(errorCode int, message string) js.Value {
	result := js.Global().Get("Object").New()
	result.Set("error", errorCode)
	result.Set("data", message)
	return result
}

func main() {
	console := js.Global().Get("console")
	js.Global().Set("generateSignature", js.FuncOf(generateSignature))

	if window := js.Global().Get("window"); !window.IsUndefined() {
		event := js.Global().Get("CustomEvent").New("wasmReady", js.Global().Get("Object").New())
		window.Call("dispatchEvent", event)
	}
	if !console.IsUndefined() {
		console.Call("log", "songtag WASM module ready")
	}

	select {}
}
