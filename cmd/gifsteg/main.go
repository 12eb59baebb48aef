package main

import (
	"context"
	"encoding/hex"
	"fmt"
	"io"
	"log"
	"os"
	"unicode/utf8"

	"github.com/fatih/color"
	"lukechampine.com/flagg"

	"github.com/lukechampine/gifsteg"
)

var (
	good = color.New(color.FgGreen).SprintFunc()
	warn = color.New(color.FgYellow).SprintFunc()
)

func main() {
	log.SetFlags(0)

	flagg.Root.Usage = flagg.SimpleUsage(flagg.Root, `Usage: gifsteg [command] [args]

Commands:
    gifsteg analyze in.gif [FLAG_REGEX]
    gifsteg tables in.gif
    gifsteg reveal in.gif [FILE]
`)
	cmdAnalyze := flagg.New("analyze", `Usage:
    gifsteg analyze [flags] in.gif [FLAG_REGEX]
      Extract color tables, frames and the LSB payload of in.gif into the
      output directory, try XOR keys on the payload and search the decoded
      text for FLAG_REGEX
`)
	configPath := cmdAnalyze.String("config", "", "YAML configuration file")
	outDir := cmdAnalyze.String("o", "", "output directory (default out_gifsteg)")
	format := cmdAnalyze.String("format", "", "image format for frames and swatches: png or bmp")
	noOCR := cmdAnalyze.Bool("no-ocr", false, "do not run tesseract over the frames")

	cmdTables := flagg.New("tables", `Usage:
    gifsteg tables in.gif
      Print the global color table and the per-frame local color tables
`)
	cmdReveal := flagg.New("reveal", `Usage:
    gifsteg reveal in.gif [FILE]
      Write the LSB payload of in.gif to FILE (or stdout)
`)
	cmd := flagg.Parse(flagg.Tree{
		Cmd: flagg.Root,
		Sub: []flagg.Tree{
			{Cmd: cmdAnalyze},
			{Cmd: cmdTables},
			{Cmd: cmdReveal},
		},
	})

	switch cmd {
	case cmdAnalyze:
		if cmd.NArg() < 1 || cmd.NArg() > 2 {
			cmdAnalyze.Usage()
			return
		}
		conf, err := loadConfig(*configPath)
		if err != nil {
			log.Fatalln("could not load config:", err)
		}
		if *outDir != "" {
			conf.OutDir = *outDir
		}
		if *format != "" {
			conf.FrameFormat = *format
		}
		if *noOCR {
			off := false
			conf.OCR.Enabled = &off
		}
		if cmd.NArg() == 2 {
			conf.FlagPattern = cmd.Arg(1)
		}
		analyze(cmd.Arg(0), conf)

	case cmdTables:
		if cmd.NArg() != 1 {
			cmdTables.Usage()
			return
		}
		f, err := os.Open(cmd.Arg(0))
		if err != nil {
			log.Fatalln("could not open file:", err)
		}
		defer f.Close()
		s, err := gifsteg.Parse(f)
		if err != nil {
			log.Fatalln("could not parse gif:", err)
		}
		h := s.Header
		fmt.Printf("GIF%s %dx%d\n", h.Version[:], h.Width, h.Height)
		if err := gifsteg.WriteGlobalListing(os.Stdout, s.Global); err != nil {
			log.Fatalln("could not write tables:", err)
		}
		if err := gifsteg.WriteLocalListing(os.Stdout, s); err != nil {
			log.Fatalln("could not write tables:", err)
		}
		for _, e := range s.Extensions {
			if e.Kind() == "comment" {
				fmt.Printf("Comment at %d: %q\n", e.Offset, e.Data)
			}
		}
		if len(s.Trailing) > 0 {
			fmt.Printf("%d bytes after trailer\n", len(s.Trailing))
		}

	case cmdReveal:
		var out io.Writer
		switch cmd.NArg() {
		// stdout
		case 1:
			out = os.Stdout

		// outfile
		case 2:
			fout, err := os.Create(cmd.Arg(1))
			if err != nil {
				log.Fatalln("could not create output file:", err)
			}
			defer fout.Close()
			out = fout

		default:
			cmdReveal.Usage()
			return
		}

		in, err := os.Open(cmd.Arg(0))
		if err != nil {
			log.Fatalln("could not open file:", err)
		}
		defer in.Close()
		frames, err := gifsteg.StdCodec{}.DecodeFrames(in)
		if err != nil && len(frames) == 0 {
			log.Fatalln("could not decode gif:", err)
		} else if err != nil {
			log.Println(warn("[!]"), "decoding stopped after", len(frames), "frames:", err)
		}
		if _, err := out.Write(gifsteg.Reconstruct(frames)); err != nil {
			log.Fatalln("could not write hidden data:", err)
		}

	default:
		flagg.Root.Usage()
	}
}

func analyze(path string, conf config) {
	opts, err := conf.options()
	if err != nil {
		log.Fatalln("invalid configuration:", err)
	}
	if opts.Recognizer, err = conf.recognizer(); err != nil {
		log.Println(warn("[!]"), "OCR disabled:", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		log.Fatalln("could not read file:", err)
	}
	log.Println(good("[+]"), "Processing", path)

	r := gifsteg.Analyze(context.Background(), data, opts)
	a, err := gifsteg.WriteArtifacts(conf.OutDir, r, conf.artifactOptions())
	if a == nil {
		log.Fatalln("could not write output:", err)
	} else if err != nil {
		log.Println(warn("[!]"), "some outputs failed:", err)
	}

	if r.StructureErr != nil {
		log.Println(warn("[!]"), "GCT/LCT extraction failed:", r.StructureErr)
	} else {
		s := r.Structure
		if a.GlobalListing != "" {
			log.Println(good("[+]"), "GCT extracted", len(s.Global), "colors ->", a.GlobalListing)
		} else {
			log.Println(good("[+]"), "no GCT present")
		}
		log.Println(good("[+]"), "LCT extracted", len(s.LocalColorTables()), "palettes ->", a.LocalListing)
		if note := s.Note(); note != "" {
			log.Println(warn("[!]"), "walk stopped early:", note)
		}
		if len(a.Swatches) > 0 {
			log.Println(good("[+]"), len(a.Swatches), "256-color palettes visualized")
		}
		if len(s.Trailing) > 0 {
			log.Println(warn("[!]"), len(s.Trailing), "bytes follow the GIF trailer")
		}
	}

	if r.FramesErr != nil {
		log.Println(warn("[!]"), "frame extraction failed:", r.FramesErr)
	}
	log.Println(good("[+]"), len(r.Frames), "frames extracted")
	log.Printf("%s LSB payload: %d bytes, blake2b-256 %s -> %s", good("[+]"),
		len(r.Payload), hex.EncodeToString(r.Digest[:]), a.Payload)
	for _, err := range r.OCRErrs {
		log.Println(warn("[!]"), "ocr:", err)
	}

	if conf.FlagPattern != "" {
		if r.FlagsErr != nil {
			log.Println(warn("[!]"), "bad flag pattern:", r.FlagsErr)
		} else {
			log.Println(good("[+]"), "Flags found:", r.Flags)
		}
	} else {
		log.Println(good("[+]"), "Auto decoded content:")
		fmt.Println(truncate(r.Text(), 1000))
	}
	log.Println(good("[DONE]"), "All analysis completed.")
}

// truncate cuts s to at most n bytes without splitting a rune.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
