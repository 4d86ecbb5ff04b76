package mp4engine

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/Eyevinn/mp4ff/mp4"

	"github.com/user/playdecoder/pkg/adapters/codecdetect"
	"github.com/user/playdecoder/pkg/ports"
)

var (
	// ErrNoTracks is returned for files without a video or audio track.
	ErrNoTracks = errors.New("mp4engine: no video or audio track")

	// ErrNoSampleTable is returned for progressive files missing sample boxes.
	ErrNoSampleTable = errors.New("mp4engine: no sample table")
)

type track struct {
	id        uint32
	kind      ports.MediaKind
	timescale uint32
	entry     string
	codec     codecdetect.Codec
	width     int
	height    int
	paramSets []byte // Annex B SPS/PPS for H.264
	trak      *mp4.TrakBox
	trex      *mp4.TrexBox
	count     int
}

type sample struct {
	kind  ports.MediaKind
	tsMs  int64
	durMs int64
	key   bool
	data  []byte
}

// container is the demuxed content of a file: one optional video track, one
// optional audio track and all their samples in decode order.
type container struct {
	fragmented bool
	video      *track
	audio      *track
	samples    []sample
}

func demux(r io.ReadSeeker) (*container, error) {
	mp4File, err := mp4.DecodeFile(r)
	if err != nil {
		return nil, fmt.Errorf("decode mp4: %w", err)
	}

	c := &container{fragmented: mp4File.IsFragmented()}
	for _, trak := range codecdetect.Traks(mp4File) {
		switch codecdetect.HandlerType(trak) {
		case "vide":
			if c.video == nil {
				c.video = newTrack(trak, ports.KindVideo)
			}
		case "soun":
			if c.audio == nil {
				c.audio = newTrack(trak, ports.KindAudio)
			}
		}
	}
	if c.video == nil && c.audio == nil {
		return nil, ErrNoTracks
	}

	if c.fragmented {
		err = c.readFragmented(mp4File)
	} else {
		err = c.readProgressive(r)
	}
	if err != nil {
		return nil, err
	}

	// Video first on equal timestamps.
	slices.SortStableFunc(c.samples, func(a, b sample) int {
		switch {
		case a.tsMs < b.tsMs:
			return -1
		case a.tsMs > b.tsMs:
			return 1
		case a.kind == b.kind:
			return 0
		case a.kind == ports.KindVideo:
			return -1
		default:
			return 1
		}
	})
	return c, nil
}

func newTrack(trak *mp4.TrakBox, kind ports.MediaKind) *track {
	t := &track{
		kind:      kind,
		timescale: 1000,
		entry:     codecdetect.SampleEntryType(trak),
		trak:      trak,
	}
	if trak.Tkhd != nil {
		t.id = trak.Tkhd.TrackID
	}
	if trak.Mdia != nil && trak.Mdia.Mdhd != nil && trak.Mdia.Mdhd.Timescale != 0 {
		t.timescale = trak.Mdia.Mdhd.Timescale
	}
	if kind != ports.KindVideo {
		return t
	}

	t.codec = codecdetect.VideoCodec(trak)
	if trak.Mdia.Minf != nil && trak.Mdia.Minf.Stbl != nil && trak.Mdia.Minf.Stbl.Stsd != nil {
		for _, child := range trak.Mdia.Minf.Stbl.Stsd.Children {
			vse, ok := child.(*mp4.VisualSampleEntryBox)
			if !ok {
				continue
			}
			t.width = int(vse.Width)
			t.height = int(vse.Height)
			if vse.AvcC != nil {
				t.paramSets = annexBParamSets(vse.AvcC)
			}
			break
		}
	}
	return t
}

func (t *track) toMs(ticks uint64) int64 {
	return int64(ticks * 1000 / uint64(t.timescale))
}

// payload converts a coded sample to what the frame decoder expects.
func (t *track) payload(data []byte, key bool) []byte {
	if t.kind != ports.KindVideo || t.codec != codecdetect.CodecH264 {
		return data
	}
	annexB := avccToAnnexB(data)
	if !key {
		return annexB
	}
	out := make([]byte, 0, len(t.paramSets)+len(annexB))
	out = append(out, t.paramSets...)
	return append(out, annexB...)
}

func (c *container) trackByID(id uint32) *track {
	if c.video != nil && c.video.id == id {
		return c.video
	}
	if c.audio != nil && c.audio.id == id {
		return c.audio
	}
	return nil
}

func (c *container) readFragmented(mp4File *mp4.File) error {
	if mp4File.Init != nil && mp4File.Init.Moov != nil && mp4File.Init.Moov.Mvex != nil {
		for _, trex := range mp4File.Init.Moov.Mvex.Trexs {
			if t := c.trackByID(trex.TrackID); t != nil {
				t.trex = trex
			}
		}
	}

	for _, seg := range mp4File.Segments {
		for _, frag := range seg.Fragments {
			if frag.Moof == nil || frag.Moof.Traf == nil || frag.Moof.Traf.Tfhd == nil {
				continue
			}
			// Fragments are expected to carry one track each.
			t := c.trackByID(frag.Moof.Traf.Tfhd.TrackID)
			if t == nil {
				continue
			}

			fullSamples, err := frag.GetFullSamples(t.trex)
			if err != nil {
				return fmt.Errorf("get samples: %w", err)
			}
			for _, fs := range fullSamples {
				key := fs.Flags == mp4.SyncSampleFlags || t.count == 0
				t.count++
				c.samples = append(c.samples, sample{
					kind:  t.kind,
					tsMs:  t.toMs(fs.DecodeTime),
					durMs: t.toMs(uint64(fs.Dur)),
					key:   key,
					data:  t.payload(fs.Data, key),
				})
			}
		}
	}
	return nil
}

func (c *container) readProgressive(r io.ReadSeeker) error {
	for _, t := range []*track{c.video, c.audio} {
		if t == nil {
			continue
		}
		if err := c.readTrackSamples(t, r); err != nil {
			return err
		}
	}
	return nil
}

func (c *container) readTrackSamples(t *track, r io.ReadSeeker) error {
	trak := t.trak
	if trak.Mdia == nil || trak.Mdia.Minf == nil || trak.Mdia.Minf.Stbl == nil || trak.Mdia.Minf.Stbl.Stsz == nil {
		return fmt.Errorf("%w: track %d", ErrNoSampleTable, t.id)
	}
	stbl := trak.Mdia.Minf.Stbl

	syncSamples := make(map[uint32]bool)
	if stbl.Stss != nil {
		for _, nr := range stbl.Stss.SampleNumber {
			syncSamples[nr] = true
		}
	}

	for nr := uint32(1); nr <= stbl.Stsz.SampleNumber; nr++ {
		data, err := sampleData(stbl, r, nr)
		if err != nil {
			continue
		}

		var (
			decodeTime uint64
			dur        uint32
		)
		if stbl.Stts != nil {
			decodeTime, dur = stbl.Stts.GetDecodeTime(nr)
		}
		key := syncSamples[nr] || len(syncSamples) == 0
		t.count++

		c.samples = append(c.samples, sample{
			kind:  t.kind,
			tsMs:  t.toMs(decodeTime),
			durMs: t.toMs(uint64(dur)),
			key:   key,
			data:  t.payload(data, key),
		})
	}
	return nil
}

// sampleData reads one sample of a progressive file through the chunk tables.
func sampleData(stbl *mp4.StblBox, r io.ReadSeeker, sampleNr uint32) ([]byte, error) {
	if stbl.Stsc == nil || stbl.Stsz == nil {
		return nil, fmt.Errorf("missing stsc or stsz box")
	}

	chunkNr, firstSampleInChunk, err := stbl.Stsc.ChunkNrFromSampleNr(int(sampleNr))
	if err != nil {
		return nil, fmt.Errorf("get chunk nr: %w", err)
	}

	var chunkOffset uint64
	switch {
	case stbl.Stco != nil:
		chunkOffset, err = stbl.Stco.GetOffset(chunkNr)
		if err != nil {
			return nil, fmt.Errorf("get chunk offset: %w", err)
		}
	case stbl.Co64 != nil:
		if chunkNr < 1 || chunkNr > len(stbl.Co64.ChunkOffset) {
			return nil, fmt.Errorf("chunk nr out of range")
		}
		chunkOffset = stbl.Co64.ChunkOffset[chunkNr-1]
	default:
		return nil, fmt.Errorf("no stco or co64 box")
	}

	offset := chunkOffset
	for s := uint32(firstSampleInChunk); s < sampleNr; s++ {
		offset += uint64(stbl.Stsz.GetSampleSize(int(s)))
	}

	if _, err := r.Seek(int64(offset), io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to sample: %w", err)
	}
	data := make([]byte, stbl.Stsz.GetSampleSize(int(sampleNr)))
	if _, err := io.ReadFull(r, data); err != nil {
		return nil, fmt.Errorf("read sample: %w", err)
	}
	return data, nil
}

func annexBParamSets(avcC *mp4.AvcCBox) []byte {
	var out []byte
	for _, sps := range avcC.SPSnalus {
		out = append(out, 0, 0, 0, 1)
		out = append(out, sps...)
	}
	for _, pps := range avcC.PPSnalus {
		out = append(out, 0, 0, 0, 1)
		out = append(out, pps...)
	}
	return out
}

// avccToAnnexB converts length-prefixed NAL units to start-code prefixed ones.
func avccToAnnexB(data []byte) []byte {
	var result []byte
	offset := 0

	for offset+4 <= len(data) {
		naluLen := int(data[offset])<<24 | int(data[offset+1])<<16 |
			int(data[offset+2])<<8 | int(data[offset+3])
		offset += 4

		if offset+naluLen > len(data) {
			break
		}

		result = append(result, 0, 0, 0, 1)
		result = append(result, data[offset:offset+naluLen]...)
		offset += naluLen
	}

	return result
}
