package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/akamensky/argparse"
	"github.com/cellframe"
	"github.com/cellframe/internal/classify"
	"github.com/cellframe/internal/config"
	"github.com/cellframe/internal/region"
	"github.com/cellframe/internal/render"
)

func check(err error) {
	if err != nil {
		panic(err)
	}
}

func main() {
	parser := argparse.NewParser("simple_inference", "Segment and classify the cells of a single image")
	input := parser.String("i", "input", &argparse.Options{Help: "Input image", Required: true})
	output := parser.String("o", "output", &argparse.Options{Help: "Output PNG coloured by category", Default: "classified.png"})
	stageName := parser.Selector("", "stage", []string{"start", "middle", "end"}, &argparse.Options{Help: "Stage of the image within its recording", Default: "start"})
	segmenter := parser.Selector("s", "segmenter", []string{config.SegmenterONNX, config.SegmenterOtsu}, &argparse.Options{Help: "onnx or otsu", Default: config.SegmenterOtsu})
	model := parser.String("", "model", &argparse.Options{Help: "ONNX model file", Default: ""})
	library := parser.String("", "library", &argparse.Options{Help: "onnxruntime shared library", Default: ""})
	diameter := parser.Float("d", "diameter", &argparse.Options{Help: "Expected cell diameter in pixels", Default: 30.0})
	invert := parser.Flag("", "invert", &argparse.Options{Help: "otsu: cells are darker than the background", Default: false})
	if err := parser.Parse(os.Args); err != nil {
		fmt.Fprint(os.Stderr, parser.Usage(err))
		os.Exit(1)
	}

	stage, err := classify.ParseStage(*stageName)
	check(err)

	cfg := config.Default()
	cfg.Input = *input
	cfg.Diameter = *diameter
	cfg.Segmenter.Kind = *segmenter
	cfg.Segmenter.Model = *model
	cfg.Segmenter.Library = *library
	cfg.Segmenter.Invert = *invert
	check(cfg.Validate())
	seg, err := cellframe.NewSegmenter(&cfg)
	check(err)
	defer seg.Close()

	gray, err := cellframe.ReadGray(*input)
	check(err)
	mask, err := seg.Segment(context.Background(), gray)
	check(err)
	regions, err := region.Extract(region.Relabel(mask), gray)
	check(err)

	cats := make([]classify.Category, len(regions))
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "label\tarea\tperimeter\tcircularity\tbrightness\tcategory")
	for i := range regions {
		r := &regions[i]
		cats[i] = cfg.Rules.Classify(r, stage)
		fmt.Fprintf(tw, "%d\t%d\t%.1f\t%.3f\t%.1f\t%s\n", r.Label, r.Area, r.Perimeter, r.Circularity(), r.MeanIntensity, cats[i])
	}
	check(tw.Flush())

	base, err := cellframe.MatCompositor{}.Colorize(gray)
	check(err)
	canvases, err := render.Paint(base, regions, cats)
	check(err)
	outputs := &cellframe.FileOutputs{Dir: filepath.Dir(*output)}
	check(outputs.WriteImage(filepath.Base(*output), canvases.Combined))
	fmt.Printf("%d objects, saved %s\n", len(regions), *output)
}
