// Command prewhiten decomposes a light curve into sinusoids.
//
// Usage:
//
//	prewhiten [flags] [file]
//
// The input file holds one observation per line: time and flux columns
// separated by whitespace or commas, '#' lines ignored. Without a file a
// synthetic three-sinusoid demo series is used.
//
// Examples:
//
//	prewhiten lightcurve.csv
//	prewhiten -snr -max 20 lightcurve.csv
//	prewhiten -period lightcurve.csv
//	prewhiten -v
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log/slog"
	"math"
	"math/rand"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/cwbudde/algo-lightcurve/extract"
	"github.com/cwbudde/algo-lightcurve/lightcurve"
)

func main() {
	bicThr := flag.Float64("bic", 2, "minimum BIC decrease to accept a sinusoid")
	snrStop := flag.Bool("snr", false, "stop on signal-to-noise instead of BIC")
	snrThr := flag.Float64("snrthr", 4, "signal-to-noise threshold when -snr is set")
	maxN := flag.Int("max", 0, "maximum number of sinusoids to extract (0 = unlimited)")
	fitEach := flag.Bool("fit", false, "non-linear refit after every extraction step")
	period := flag.Bool("period", false, "search for an orbital period and fix its harmonics")
	verbose := flag.Bool("v", false, "verbose progress logging")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: prewhiten [flags] [file]\n\n")
		fmt.Fprintf(os.Stderr, "Iteratively extracts sinusoids from a light curve.\n")
		fmt.Fprintf(os.Stderr, "Without a file, runs on a built-in synthetic series.\n\n")
		fmt.Fprintf(os.Stderr, "Flags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	var time, flux []float64
	var err error
	if flag.NArg() > 0 {
		time, flux, err = readSeries(flag.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(1)
		}
	} else {
		time, flux = demoSeries()
		fmt.Println("no input file, using synthetic demo series")
	}

	var logger *slog.Logger
	if *verbose {
		logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	}

	model, err := lightcurve.New(time, flux, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	opts := extract.DefaultOptions()
	opts.BICThreshold = *bicThr
	opts.MaxExtract = *maxN
	opts.FitEachStep = *fitEach
	opts.Logger = logger
	if *snrStop {
		opts.StopCriterion = extract.StopSNR
		opts.SNRThreshold = *snrThr
	}

	if err := extract.Sinusoids(model, opts); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	consts, slopes, fN, aN, phN := model.Parameters()
	params := extract.Parameters{Const: consts, Slope: slopes, Freq: fN, Amp: aN, Ph: phN}

	pOrb := 0.0
	if *period && len(fN) > 0 {
		pOrb, err = extract.FindOrbitalPeriod(time, flux, fN)
		if err != nil {
			fmt.Fprintf(os.Stderr, "warning: period search failed: %v\n", err)
		} else {
			fixed, err := extract.FixHarmonicFrequency(time, flux, pOrb, params, model.Chunks(), logger)
			if err != nil {
				fmt.Fprintf(os.Stderr, "warning: %v\n", err)
				pOrb = 0
			} else {
				params = fixed
			}
		}
	}

	params = extract.Reduce(time, flux, pOrb, params, model.Chunks(), logger)
	flags := extract.Select(time, flux, nil, pOrb, params, model.Chunks(), logger)

	if pOrb > 0 {
		fmt.Printf("orbital period: %.5f\n", pOrb)
	}
	fmt.Printf("sinusoids: %d\n\n", len(params.Freq))
	printTable(params, flags)
}

func printTable(p extract.Parameters, flags extract.Flags) {
	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "#\tFrequency\tAmplitude\tPhase\tSigma\tSNR\tHarmonic\n")
	fmt.Fprintf(tw, "-\t---------\t---------\t-----\t-----\t---\t--------\n")
	for i := range p.Freq {
		fmt.Fprintf(tw, "%d\t%.6f\t%.6g\t%+.4f\t%s\t%s\t%s\n",
			i+1, p.Freq[i], p.Amp[i], p.Ph[i],
			mark(flags.PassedSigma[i]), mark(flags.PassedSNR[i]), mark(flags.PassedHarmonic[i]))
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(os.Stderr, "error: failed to flush output: %v\n", err)
	}
}

func mark(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func readSeries(path string) (time, flux []float64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.FieldsFunc(text, func(r rune) bool {
			return r == ',' || r == ' ' || r == '\t' || r == ';'
		})
		if len(fields) < 2 {
			return nil, nil, fmt.Errorf("%s:%d: need at least two columns", path, line)
		}
		t, err := strconv.ParseFloat(fields[0], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("%s:%d: %v", path, line, err)
		}
		v, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return nil, nil, fmt.Errorf("%s:%d: %v", path, line, err)
		}
		time = append(time, t)
		flux = append(flux, v)
	}
	if err := sc.Err(); err != nil {
		return nil, nil, err
	}
	return time, flux, nil
}

func demoSeries() (time, flux []float64) {
	const n = 2000
	rng := rand.New(rand.NewSource(1))
	time = make([]float64, n)
	flux = make([]float64, n)
	for i := range time {
		time[i] = 40 * float64(i) / float64(n-1)
		t := time[i]
		flux[i] = 0.02*math.Sin(2*math.Pi*2.5*t+0.3) +
			0.012*math.Sin(2*math.Pi*3.7*t+1.1) +
			0.008*math.Sin(2*math.Pi*5.0*t-0.8) +
			0.002*rng.NormFloat64()
	}
	return time, flux
}
