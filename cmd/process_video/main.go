package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"

	"github.com/akamensky/argparse"
	"github.com/cellframe"
	"github.com/cellframe/internal/config"
	"github.com/cellframe/internal/logging"
	"github.com/cellframe/internal/pipeline"
	"github.com/cellframe/internal/store"
)

func run() int {
	parser := argparse.NewParser("process_video", "Segment, measure and classify the cells of a frame directory or video")
	configFile := parser.String("c", "config", &argparse.Options{Help: "YAML configuration file", Default: ""})
	input := parser.String("i", "input", &argparse.Options{Help: "Frame directory or video file", Default: ""})
	outputDir := parser.String("o", "output", &argparse.Options{Help: "Output directory", Default: ""})
	mode := parser.Selector("m", "mode", []string{"", string(config.ModeClassify), string(config.ModeMetrics)}, &argparse.Options{Help: "classify or metrics", Default: ""})
	fps := parser.Float("", "fps", &argparse.Options{Help: "Output frame rate (0 picks the default for the mode)", Default: -1.0})
	codec := parser.String("", "codec", &argparse.Options{Help: "Output video fourcc", Default: ""})
	diameter := parser.Float("d", "diameter", &argparse.Options{Help: "Expected cell diameter in pixels (default 30 for classify, none for metrics)", Default: 0.0})
	segmenter := parser.Selector("s", "segmenter", []string{"", config.SegmenterONNX, config.SegmenterOtsu}, &argparse.Options{Help: "onnx or otsu", Default: ""})
	model := parser.String("", "model", &argparse.Options{Help: "ONNX model file", Default: ""})
	modelConfig := parser.String("", "model-config", &argparse.Options{Help: "Model geometry JSON (default: model path with .json)", Default: ""})
	library := parser.String("", "library", &argparse.Options{Help: "onnxruntime shared library", Default: ""})
	cellprob := parser.String("", "cellprob", &argparse.Options{Help: "Cell probability threshold (default -0.8 for classify, 0 for metrics)", Default: ""})
	invert := parser.Flag("", "invert", &argparse.Options{Help: "otsu: cells are darker than the background", Default: false})
	caption := parser.Flag("", "caption", &argparse.Options{Help: "Draw frame name and category counts on the overlay", Default: false})
	saveMasks := parser.Flag("", "save-masks", &argparse.Options{Help: "metrics: also save every label mask as PNG", Default: false})
	postgres := parser.String("", "postgres", &argparse.Options{Help: "Postgres DSN for storing measurements", Default: ""})
	logLevel := parser.String("", "log-level", &argparse.Options{Help: "debug, info, warn or error", Default: ""})
	if err := parser.Parse(os.Args); err != nil {
		fmt.Fprint(os.Stderr, parser.Usage(err))
		return 1
	}

	cfg := config.Default()
	if *configFile != "" {
		var err error
		if cfg, err = config.Load(*configFile); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
	}
	setString := func(dst *string, v string) {
		if v != "" {
			*dst = v
		}
	}
	setString(&cfg.Input, *input)
	setString(&cfg.OutputDir, *outputDir)
	if *mode != "" {
		cfg.Mode = config.Mode(*mode)
	}
	if *fps >= 0 {
		cfg.FPS = *fps
	}
	setString(&cfg.Codec, *codec)
	if *diameter > 0 {
		cfg.Diameter = *diameter
	}
	setString(&cfg.Segmenter.Kind, *segmenter)
	setString(&cfg.Segmenter.Model, *model)
	setString(&cfg.Segmenter.ModelConfig, *modelConfig)
	setString(&cfg.Segmenter.Library, *library)
	if *cellprob != "" {
		v, err := strconv.ParseFloat(*cellprob, 64)
		if err != nil {
			fmt.Fprintf(os.Stderr, "invalid --cellprob: %v\n", err)
			return 1
		}
		cfg.Segmenter.CellProbThreshold = &v
	}
	cfg.Segmenter.Invert = cfg.Segmenter.Invert || *invert
	cfg.Caption = cfg.Caption || *caption
	cfg.SaveMasks = cfg.SaveMasks || *saveMasks
	setString(&cfg.Postgres, *postgres)
	setString(&cfg.LogLevel, *logLevel)

	if err := cfg.Validate(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	log := logging.New(os.Stderr, level)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	source, err := cellframe.OpenSource(cfg.Input)
	if err != nil {
		log.Error("Failed to open input", "input", cfg.Input, "err", err)
		return 1
	}
	defer source.Close()
	if video, ok := source.(*cellframe.VideoSource); ok {
		log.Info("Video input",
			"width", video.Info.Width,
			"height", video.Info.Height,
			"fps", video.Info.FPS,
			"frames", video.Info.TotalFrame)
	}

	seg, err := cellframe.NewSegmenter(&cfg)
	if err != nil {
		log.Error("Failed to create segmenter", "kind", cfg.Segmenter.Kind, "err", err)
		return 1
	}
	defer seg.Close()

	outputs, err := cellframe.NewFileOutputs(cfg.OutputDir, cfg.Codec)
	if err != nil {
		log.Error("Failed to prepare outputs", "err", err)
		return 1
	}

	p := &pipeline.Pipeline{
		Config:     cfg,
		Source:     source,
		Segmenter:  seg,
		Compositor: cellframe.MatCompositor{},
		Outputs:    outputs,
		Log:        log,
	}
	var db *store.Postgres
	if cfg.Postgres != "" {
		if db, err = store.NewPostgres(ctx, cfg.Postgres, cfg.Input, string(cfg.Mode)); err != nil {
			log.Error("Failed to connect to Postgres", "err", err)
			return 1
		}
		log.Info("Storing measurements", "run", db.RunID())
		p.Store = db
	}

	log.Info("Processing",
		"input", cfg.Input,
		"frames", source.Len(),
		"mode", cfg.Mode,
		"segmenter", cfg.Segmenter.Kind,
		"fps", p.FPS())
	_, err = p.Run(ctx)
	if err != nil {
		log.Error("Processing failed", "err", err)
		if db != nil {
			if aerr := db.Abort(context.Background()); aerr != nil {
				log.Error("Failed to discard stored measurements", "run", db.RunID(), "err", aerr)
			}
		}
		return 1
	}
	if db != nil {
		if err := db.Close(context.Background()); err != nil {
			log.Error("Failed to store measurements", "err", err)
			return 1
		}
	}
	log.Info("Results saved", "dir", cfg.OutputDir)
	return 0
}

func main() {
	os.Exit(run())
}
