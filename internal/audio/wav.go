package audio

import (
	"os"

	gaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"

	"github.com/gbarbosa9/retone/domain"
)

const defaultBitDepth = 16

// ReadMonoFloat32 decodes a canonical WAV file into float32 samples
// normalized to [-1, 1]. Stereo input is downmixed by averaging channels.
func ReadMonoFloat32(path string) ([]float32, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, domain.Filesystemf("open wav %s: %v", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, domain.Filesystemf("decode wav %s: %v", path, err)
	}

	channels := buf.Format.NumChannels
	if channels <= 1 {
		samples := make([]float32, len(buf.Data))
		for i, s := range buf.Data {
			samples[i] = float32(s) / 32768.0
		}
		return samples, nil
	}

	frames := len(buf.Data) / channels
	samples := make([]float32, frames)
	for i := 0; i < frames; i++ {
		var sum int
		for c := 0; c < channels; c++ {
			sum += buf.Data[i*channels+c]
		}
		samples[i] = float32(sum/channels) / 32768.0
	}
	return samples, nil
}

// Concat joins canonical WAV files, in the exact order given, into a single
// WAV at outPath. All inputs must share sample rate and channel count; the
// caller is responsible for supplying a deterministic order.
func Concat(paths []string, outPath string) error {
	if len(paths) == 0 {
		return domain.Validationf("no audio files to concatenate")
	}

	var merged *gaudio.IntBuffer
	for _, p := range paths {
		buf, err := readPCM(p)
		if err != nil {
			return err
		}
		if merged == nil {
			merged = buf
			continue
		}
		if buf.Format.SampleRate != merged.Format.SampleRate ||
			buf.Format.NumChannels != merged.Format.NumChannels {
			return domain.Validationf("audio format mismatch in %s", p)
		}
		merged.Data = append(merged.Data, buf.Data...)
	}

	bitDepth := merged.SourceBitDepth
	if bitDepth == 0 {
		bitDepth = defaultBitDepth
	}

	out, err := os.Create(outPath)
	if err != nil {
		return domain.Filesystemf("create %s: %v", outPath, err)
	}

	enc := wav.NewEncoder(out, merged.Format.SampleRate, bitDepth, merged.Format.NumChannels, 1)
	if err := enc.Write(merged); err != nil {
		enc.Close()
		out.Close()
		os.Remove(outPath)
		return domain.Filesystemf("encode %s: %v", outPath, err)
	}
	if err := enc.Close(); err != nil {
		out.Close()
		os.Remove(outPath)
		return domain.Filesystemf("finalize %s: %v", outPath, err)
	}
	if err := out.Close(); err != nil {
		os.Remove(outPath)
		return domain.Filesystemf("close %s: %v", outPath, err)
	}
	return nil
}

func readPCM(path string) (*gaudio.IntBuffer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, domain.Filesystemf("open wav %s: %v", path, err)
	}
	defer f.Close()

	dec := wav.NewDecoder(f)
	buf, err := dec.FullPCMBuffer()
	if err != nil {
		return nil, domain.Filesystemf("decode wav %s: %v", path, err)
	}
	return buf, nil
}
