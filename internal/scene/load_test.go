package scene_test

import (
	"os"
	"path/filepath"
	"strings"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/palcycle/internal/scene"
)

const twoPixelScene = `{
  "base": {"width": 2, "height": 1, "pixels": [0, 1]},
  "palettes": {
    "P": {"colors": [[255, 0, 0], [0, 255, 0]], "cycles": []}
  },
  "timeline": {"0": "P"}
}`

const waterScene = `{
  "base": {"width": 4, "height": 1, "pixels": [0, 1, 2, 3]},
  "palettes": {
    "day":   {"colors": [[1,1,1],[2,2,2],[3,3,3],[4,4,4]],
              "cycles": [{"low": 0, "high": 3, "rate": 560, "reverse": 2},
                         {"low": 1, "high": 2, "rate": 100, "reverse": 0}]},
    "night": {"colors": [[9,9,9]]}
  },
  "timeline": {"43200": "day", "0": "night", "72000": "night"}
}`

var _ = Describe("Decode", func() {
	It("builds the two pixel scene", func() {
		s, err := scene.Decode("tiny", strings.NewReader(twoPixelScene))
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Name).To(Equal("tiny"))
		Expect(s.Width).To(Equal(2))
		Expect(s.Height).To(Equal(1))
		Expect(s.Pixels).To(Equal([]uint8{0, 1}))

		p, ok := s.Palette("P")
		Expect(ok).To(BeTrue())
		Expect(p.Count).To(Equal(2))
		Expect(p.Colors[0]).To(Equal(scene.Color{255, 0, 0}))
		Expect(p.Colors[1]).To(Equal(scene.Color{0, 255, 0}))
		Expect(p.Colors[255]).To(Equal(scene.Color{}))
		Expect(p.Cycles).To(BeEmpty())
	})

	It("sorts the timeline and decodes rule modes", func() {
		s, err := scene.Decode("water", strings.NewReader(waterScene))
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Timeline).To(Equal(scene.Timeline{
			{Seconds: 0, Palette: "night"},
			{Seconds: 43200, Palette: "day"},
			{Seconds: 72000, Palette: "night"},
		}))

		day, _ := s.Palette("day")
		Expect(day.Cycles).To(HaveLen(2))
		Expect(day.Cycles[0]).To(Equal(scene.CycleRule{Low: 0, High: 3, Rate: 560, Mode: scene.PingPong}))
		Expect(day.Cycles[1].Mode).To(Equal(scene.Forward))
		Expect(s.PaletteNames()).To(Equal([]string{"day", "night"}))
	})

	It("reports rules that never animate", func() {
		s, err := scene.Decode("water", strings.NewReader(waterScene))
		Expect(err).NotTo(HaveOccurred())

		warnings := s.Warnings(280)
		Expect(warnings).To(HaveLen(1))
		Expect(warnings[0].Palette).To(Equal("day"))
		Expect(warnings[0].Rule).To(Equal(1))
		Expect(warnings[0].String()).To(ContainSubstring("rate 100"))
	})

	DescribeTable("rejects invalid scenes",
		func(doc string, target error) {
			_, err := scene.Decode("bad", strings.NewReader(doc))
			Expect(err).To(HaveOccurred())
			Expect(err).To(MatchError(scene.ErrConfig))
			Expect(err).To(MatchError(target))

			var ce *scene.ConfigError
			Expect(err).To(BeAssignableToTypeOf(ce))
			Expect(err.Error()).To(HavePrefix(`scene "bad"`))
		},
		Entry("malformed json", `{"base": `, scene.ErrMalformed),
		Entry("empty timeline",
			`{"base":{"width":1,"height":1,"pixels":[0]},"palettes":{"P":{"colors":[]}},"timeline":{}}`,
			scene.ErrEmptyTimeline),
		Entry("missing palette",
			`{"base":{"width":1,"height":1,"pixels":[0]},"palettes":{"P":{"colors":[]}},"timeline":{"0":"Q"}}`,
			scene.ErrMissingPalette),
		Entry("non numeric time",
			`{"base":{"width":1,"height":1,"pixels":[0]},"palettes":{"P":{"colors":[]}},"timeline":{"noon":"P"}}`,
			scene.ErrTimeKey),
		Entry("time past midnight",
			`{"base":{"width":1,"height":1,"pixels":[0]},"palettes":{"P":{"colors":[]}},"timeline":{"86400":"P"}}`,
			scene.ErrTimeKey),
		Entry("low above high",
			`{"base":{"width":1,"height":1,"pixels":[0]},"palettes":{"P":{"colors":[],"cycles":[{"low":5,"high":4,"rate":300,"reverse":0}]}},"timeline":{"0":"P"}}`,
			scene.ErrRuleRange),
		Entry("high out of table",
			`{"base":{"width":1,"height":1,"pixels":[0]},"palettes":{"P":{"colors":[],"cycles":[{"low":0,"high":256,"rate":300,"reverse":0}]}},"timeline":{"0":"P"}}`,
			scene.ErrRuleRange),
		Entry("negative rate",
			`{"base":{"width":1,"height":1,"pixels":[0]},"palettes":{"P":{"colors":[],"cycles":[{"low":0,"high":1,"rate":-1,"reverse":0}]}},"timeline":{"0":"P"}}`,
			scene.ErrRate),
		Entry("unknown mode",
			`{"base":{"width":1,"height":1,"pixels":[0]},"palettes":{"P":{"colors":[],"cycles":[{"low":0,"high":1,"rate":300,"reverse":6}]}},"timeline":{"0":"P"}}`,
			scene.ErrMode),
		Entry("short color",
			`{"base":{"width":1,"height":1,"pixels":[0]},"palettes":{"P":{"colors":[[1,2]]}},"timeline":{"0":"P"}}`,
			scene.ErrColor),
		Entry("zero width",
			`{"base":{"width":0,"height":1,"pixels":[]},"palettes":{"P":{"colors":[]}},"timeline":{"0":"P"}}`,
			scene.ErrDimensions),
		Entry("pixel count",
			`{"base":{"width":2,"height":1,"pixels":[0]},"palettes":{"P":{"colors":[]}},"timeline":{"0":"P"}}`,
			scene.ErrPixelCount),
		Entry("pixel index",
			`{"base":{"width":1,"height":1,"pixels":[300]},"palettes":{"P":{"colors":[]}},"timeline":{"0":"P"}}`,
			scene.ErrPixelIndex),
	)

	It("rejects palettes with more than 256 colors", func() {
		colors := make([]string, 257)
		for i := range colors {
			colors[i] = "[0,0,0]"
		}
		doc := `{"base":{"width":1,"height":1,"pixels":[0]},"palettes":{"P":{"colors":[` +
			strings.Join(colors, ",") + `]}},"timeline":{"0":"P"}}`

		_, err := scene.Decode("big", strings.NewReader(doc))
		Expect(err).To(MatchError(scene.ErrTooManyColors))
	})
})

var _ = Describe("Load", func() {
	It("names the scene after the file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "April-Clear.json")
		Expect(os.WriteFile(path, []byte(twoPixelScene), 0644)).To(Succeed())

		s, err := scene.Load(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(s.Name).To(Equal("April-Clear"))
	})

	It("returns the read error for missing files", func() {
		_, err := scene.Load(filepath.Join(GinkgoT().TempDir(), "missing.json"))
		Expect(err).To(HaveOccurred())
		Expect(os.IsNotExist(err)).To(BeTrue())
	})
})
