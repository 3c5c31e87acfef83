// wav.go - standard 44-byte PCM WAV header (spec §6.5)

package main

import (
	"encoding/binary"
	"os"
)

const (
	wavHeaderSize  = 44
	wavSampleRate  = 44100
	wavChannels    = 2
	wavBitsPerSamp = 16
	wavBlockAlign  = wavChannels * (wavBitsPerSamp / 8)
	wavByteRate    = wavSampleRate * wavBlockAlign
)

// writeWAVHeader writes the 44-byte PCM header for dataSize bytes of
// payload that follow it in the file, per spec §6.5.
func writeWAVHeader(w *os.File, dataSize uint32) error {
	var h [wavHeaderSize]byte
	copy(h[0:4], "RIFF")
	binary.LittleEndian.PutUint32(h[4:8], 36+dataSize)
	copy(h[8:12], "WAVE")
	copy(h[12:16], "fmt ")
	binary.LittleEndian.PutUint32(h[16:20], 16)
	binary.LittleEndian.PutUint16(h[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(h[22:24], wavChannels)
	binary.LittleEndian.PutUint32(h[24:28], wavSampleRate)
	binary.LittleEndian.PutUint32(h[28:32], wavByteRate)
	binary.LittleEndian.PutUint16(h[32:34], wavBlockAlign)
	binary.LittleEndian.PutUint16(h[34:36], wavBitsPerSamp)
	copy(h[36:40], "data")
	binary.LittleEndian.PutUint32(h[40:44], dataSize)
	if _, err := w.WriteAt(h[:], 0); err != nil {
		return err
	}
	return nil
}

// writePlaceholderWAVHeader writes a zero-sized header at file open time;
// the real sizes are back-patched by writeWAVHeader once the data size is
// known (spec §4.8: "write a placeholder 44-byte header").
func writePlaceholderWAVHeader(w *os.File) error {
	return writeWAVHeader(w, 0)
}

// interleaveI16ToBytes converts interleaved stereo i16 samples to little-
// endian bytes for writing.
func interleaveI16ToBytes(samples []int16) []byte {
	out := make([]byte, len(samples)*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(s))
	}
	return out
}
