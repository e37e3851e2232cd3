package organelle

import (
	"github.com/kiralab/organelle/container"
	"github.com/kiralab/organelle/expr"
	"github.com/kiralab/organelle/gene"
	"github.com/kiralab/organelle/mtx"
	"github.com/kiralab/organelle/normcache"
)

// SourceKind identifies which on-disk form a bundle was loaded from.
type SourceKind int

const (
	// SourceText is the matrix/features/barcodes file triple.
	SourceText SourceKind = iota
	// SourceContainer is the single-file binary container.
	SourceContainer
)

func (k SourceKind) String() string {
	switch k {
	case SourceText:
		return "text"
	case SourceContainer:
		return "container"
	default:
		return "unknown"
	}
}

// Bundle is one fully discovered and indexed input directory. The heavyweight
// matrix read is deferred to Accessor; Close releases the container mapping
// when one is held.
type Bundle struct {
	Dir    string
	Source SourceKind

	// MatrixPath, FeaturesPath and BarcodesPath locate the text triple.
	// For a container source all three equal ContainerPath.
	MatrixPath    string
	FeaturesPath  string
	BarcodesPath  string
	ContainerPath string

	Features []gene.Feature
	Index    *gene.Index
	Species  gene.Species
	Barcodes []string
	Meta     *CellMeta

	cont *container.Container
	opts options
	log  *Logger
}

// Load discovers the input files under dir and builds the gene index,
// species call, barcode list and optional cell metadata. The binary
// container is preferred when present; otherwise the text triple is used.
func Load(dir string, opts ...Option) (*Bundle, error) {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger.WithDir(dir)

	prefix, err := detectPrefix(dir)
	if err != nil {
		return nil, err
	}

	var b *Bundle
	if path, ok := containerPath(dir, prefix); ok {
		b, err = loadContainer(dir, path, o, log)
	} else {
		b, err = loadText(dir, prefix, o, log)
	}
	if err != nil {
		return nil, translateError(err)
	}

	for _, d := range b.Index.Duplicates {
		log.Warn("duplicate gene symbol; mapping to existing gene id",
			"feature_index", d.FeatureIndex, "symbol", d.Symbol)
	}
	if n := b.Index.UnmappedCount(); n > 0 {
		log.Warn("features without a gene id", "count", n)
	}
	log.Info("input loaded",
		"source", b.Source.String(),
		"cells", len(b.Barcodes),
		"features", b.Index.NumFeatures(),
		"genes", b.Index.NumGenes(),
		"species", b.Species.String(),
	)

	if o.metaPath != "" {
		meta, err := loadCellMeta(o.metaPath, b.Barcodes, log)
		if err != nil {
			b.Close()
			return nil, translateError(err)
		}
		b.Meta = meta
	}

	return b, nil
}

func loadText(dir, prefix string, o options, log *Logger) (*Bundle, error) {
	matrixPath, err := findInput(dir, prefix, "matrix", matrixCandidates)
	if err != nil {
		return nil, err
	}
	featuresPath, err := findInput(dir, prefix, "features", featureCandidates)
	if err != nil {
		return nil, err
	}
	barcodesPath, err := findInput(dir, prefix, "barcodes", barcodeCandidates)
	if err != nil {
		return nil, err
	}
	log.Info("discovered input files",
		"matrix", matrixPath, "features", featuresPath, "barcodes", barcodesPath)

	features, err := gene.ParseFeatures(featuresPath)
	if err != nil {
		return nil, err
	}
	if len(features) > 0 && features[0].FeatureType == "" {
		for _, f := range features[1:] {
			if f.FeatureType != "" {
				log.Warn("features file mixes two-column and three-column lines; treating as three-column")
				break
			}
		}
	}
	barcodes, err := gene.ParseBarcodes(barcodesPath)
	if err != nil {
		return nil, err
	}

	return &Bundle{
		Dir:          dir,
		Source:       SourceText,
		MatrixPath:   matrixPath,
		FeaturesPath: featuresPath,
		BarcodesPath: barcodesPath,
		Features:     features,
		Index:        gene.BuildIndex(features),
		Species:      gene.DetectSpecies(features),
		Barcodes:     barcodes,
		opts:         o,
		log:          log,
	}, nil
}

func loadContainer(dir, path string, o options, log *Logger) (*Bundle, error) {
	c, err := container.Open(path)
	if err != nil {
		return nil, err
	}
	log.Info("discovered container", "path", path)

	features := gene.FeaturesFromSymbols(c.Genes)
	return &Bundle{
		Dir:           dir,
		Source:        SourceContainer,
		MatrixPath:    path,
		FeaturesPath:  path,
		BarcodesPath:  path,
		ContainerPath: path,
		Features:      features,
		Index:         gene.BuildIndex(features),
		Species:       gene.DetectSpecies(features),
		Barcodes:      c.Barcodes,
		cont:          c,
		opts:          o,
		log:           log,
	}, nil
}

// Accessor reads the matrix and returns the expression view honoring the
// normalize and cache options given to Load.
func (b *Bundle) Accessor() (expr.Accessor, error) {
	var counts expr.Accessor
	switch b.Source {
	case SourceContainer:
		counts = expr.NewContainerCounts(b.cont, b.Index)
	default:
		m, err := mtx.Read(b.MatrixPath, b.Index.NumFeatures(), len(b.Barcodes), b.Index)
		if err != nil {
			return nil, translateError(err)
		}
		counts = expr.NewRawCounts(m, b.Index.NumGenes())
	}

	exprOpts := expr.Options{
		Normalize: b.opts.normalize,
		Cache:     b.opts.cache,
		CachePath: b.opts.cachePath,
		Scale:     b.opts.scale,
		Log:       b.log.Logger,
	}

	var meta normcache.Meta
	if exprOpts.Normalize && exprOpts.Cache {
		if exprOpts.CachePath == "" {
			exprOpts.CachePath = normcache.DefaultPath(b.MatrixPath)
		}
		var err error
		meta, err = b.fingerprint(exprOpts.Scale)
		if err != nil {
			return nil, err
		}
	}

	return expr.Build(counts, meta, exprOpts), nil
}

// fingerprint hashes every input contributing to the normalized result.
func (b *Bundle) fingerprint(scale float32) (normcache.Meta, error) {
	var hashes normcache.FileHashes
	var err error
	if b.Source == SourceContainer {
		hashes, err = normcache.HashContainerFile(b.ContainerPath)
	} else {
		hashes, err = normcache.HashInputFiles(b.MatrixPath, b.FeaturesPath, b.BarcodesPath)
	}
	if err != nil {
		return normcache.Meta{}, err
	}

	return normcache.Meta{
		NCells:        uint32(len(b.Barcodes)),
		NGenes:        uint32(b.Index.NumGenes()),
		HashMatrix:    hashes.Matrix,
		HashFeatures:  hashes.Features,
		HashBarcodes:  hashes.Barcodes,
		HashGeneIndex: normcache.HashGeneIndex(b.Index.SymbolsByGeneID),
		Scale:         scale,
		Log1p:         true,
	}, nil
}

// Close releases the container mapping when the bundle holds one.
func (b *Bundle) Close() error {
	if b.cont == nil {
		return nil
	}
	c := b.cont
	b.cont = nil
	return c.Close()
}
