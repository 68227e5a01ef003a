package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	id3v2 "github.com/bogem/id3v2/v2"

	"github.com/Ciantic/mpeg1audio"
)

// Useful test tool to confirm what we actually extract from real files.
func main() {
	exact := flag.Bool("exact", false, "scan every frame for exact values")
	noScan := flag.Bool("no-scan", false, "never scan; report unknown instead")
	noTrust := flag.Bool("no-vbr-trust", false, "ignore declared Xing/VBRI counts")
	tags := flag.Bool("tags", false, "also print ID3v2 tags")
	flag.Parse()

	if flag.NArg() < 1 {
		fmt.Println("Usage: mpeg-dump [flags] <file.mp3>")
		flag.PrintDefaults()
		os.Exit(1)
	}

	var opts []mpeg1audio.Option
	if *noTrust {
		opts = append(opts, mpeg1audio.WithoutVBRHeaderTrust())
	}

	for _, path := range flag.Args() {
		if err := dump(path, opts, *exact, *noScan, *tags); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	}
}

func dump(path string, opts []mpeg1audio.Option, exact, noScan, tags bool) error {
	m, err := mpeg1audio.Open(path, opts...)
	if err != nil {
		return err
	}
	defer m.Close()

	if exact {
		if err := m.ParseAll(); err != nil {
			return err
		}
	}
	policy := mpeg1audio.AllowFullScan
	if noScan {
		policy = mpeg1audio.NoFullScan
	}

	h := m.Header()
	fmt.Printf("File: %s (%d bytes)\n", m.Path, m.Size)
	fmt.Printf("Format:      MPEG-%s Layer %s\n", h.Version, h.Layer)
	if m.Bitrate() == mpeg1audio.FreeFormat {
		fmt.Printf("Bitrate:     free format\n")
	} else {
		fmt.Printf("Bitrate:     %d kbps\n", m.Bitrate())
	}
	fmt.Printf("Sample rate: %d Hz\n", m.SampleRate())
	fmt.Printf("Channels:    %d (%s)\n", m.Channels(), h.ChannelMode)
	if m.IsVBR() {
		fmt.Printf("VBR header:  %s", m.VBR().Kind)
		if m.VBR().FrameCount >= 0 {
			fmt.Printf(", %d frames declared", m.VBR().FrameCount)
		}
		fmt.Println()
	}

	printValue := func(name string, v any, err error) {
		if errors.Is(err, mpeg1audio.ErrScanRequired) {
			fmt.Printf("%s unknown (scan required)\n", name)
			return
		}
		if err != nil {
			fmt.Printf("%s error: %v\n", name, err)
			return
		}
		fmt.Printf("%s %v\n", name, v)
	}

	d, err := m.Duration(policy)
	printValue("Duration:   ", d, err)
	fc, err := m.FrameCount(policy)
	printValue("Frames:     ", fc, err)
	sc, err := m.SampleCount(policy)
	printValue("Samples:    ", sc, err)
	ab, err := m.AverageBitrate(policy)
	printValue("Avg bitrate:", ab, err)
	as, err := m.AudioSize(policy)
	printValue("Audio size: ", as, err)

	fmt.Printf("Parse state: %s\n", m.State())
	for _, w := range m.Warnings() {
		fmt.Printf("Warning: %s\n", w)
	}

	if tags {
		printTags(path)
	}
	fmt.Println()
	return nil
}

// printTags prints the ID3v2 tags next to the technical metadata. Tag
// parsing lives outside the library, so the tool brings its own reader.
func printTags(path string) {
	tag, err := id3v2.Open(path, id3v2.Options{Parse: true})
	if err != nil {
		fmt.Printf("Tags: unreadable: %v\n", err)
		return
	}
	defer tag.Close()

	fmt.Println("Tags:")
	for name, value := range map[string]string{
		"Title":  tag.Title(),
		"Artist": tag.Artist(),
		"Album":  tag.Album(),
		"Year":   tag.Year(),
		"Genre":  tag.Genre(),
	} {
		if value != "" {
			fmt.Printf("  %-7s %s\n", name+":", value)
		}
	}
}
