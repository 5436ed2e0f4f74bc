// Package bundle partitions an extracted submission into metadata documents
// and resource files and merges the documents into one combined record.
package bundle

import (
	"bufio"
	"bytes"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"etdbridge/internal/logging"
	"etdbridge/internal/services"
	"etdbridge/internal/textutil"
)

const stage = "aggregating"

// Generated file names inside a working directory.
const (
	CombinedFile    = "Combined.xml"
	TransformedFile = "Transformed.xml"
	outputSuffix    = "_Output.xml"
)

const (
	combinedProlog = "<?xml version=\"1.0\" encoding=\"UTF-8\"?>\r\n" +
		"<?xml-stylesheet type=\"text/xsl\" href=\"result.xsl\"?>\r\n"
	rootOpen  = "<DISS_Documents>"
	rootClose = "</DISS_Documents>"
)

// declarationPattern matches XML declarations and any other processing
// instruction whose target starts with "xml" on a single line.
var declarationPattern = regexp.MustCompile(`<\?xml(.+?)\?>`)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// OutputFileName returns the final record file name for a submission.
func OutputFileName(submission string) string {
	return submission + outputSuffix
}

// Resource is a non-metadata file that will be published.
type Resource struct {
	Path string
	Name string
}

// Contents is the partitioned view of a working directory. Both slices are
// in lexical walk order.
type Contents struct {
	Documents []string
	Resources []Resource
}

// Result describes a completed aggregation.
type Result struct {
	CombinedPath string
	Contents
}

// Partition walks workdir and classifies each regular file. A file at the top
// of workdir named like one the pipeline writes there is an aggregation
// failure, since it would be overwritten.
func Partition(workdir string) (Contents, error) {
	var contents Contents
	names := map[string]string{}
	err := filepath.WalkDir(workdir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		name := d.Name()
		if filepath.Dir(path) == filepath.Clean(workdir) && isReserved(name) {
			return services.Fail(services.ErrAggregation, stage, "Partition",
				fmt.Sprintf("archive contains reserved file name %q", name), nil).
				WithPath(path).
				WithHint("rename the file inside the archive and resubmit")
		}
		if strings.EqualFold(filepath.Ext(name), ".xml") {
			contents.Documents = append(contents.Documents, path)
			return nil
		}
		key := textutil.NormalizeName(name)
		if previous, ok := names[key]; ok {
			return services.Fail(services.ErrAggregation, stage, "Partition",
				fmt.Sprintf("resource name %q appears more than once", key), nil).
				WithPath(path).
				WithHint("rename one of " + previous + " and " + path)
		}
		names[key] = path
		contents.Resources = append(contents.Resources, Resource{Path: path, Name: key})
		return nil
	})
	if err != nil {
		if services.KindOf(err) == services.KindAggregation {
			return Contents{}, err
		}
		return Contents{}, services.Wrap(services.ErrAggregation, stage, "Partition", "walk working directory", err)
	}
	return contents, nil
}

func isReserved(name string) bool {
	return name == CombinedFile || name == TransformedFile || strings.HasSuffix(name, outputSuffix)
}

// Combine writes Combined.xml into workdir: the fixed prolog, a
// DISS_Documents root, and the body of each document with its declaration
// stripped, in the order given.
func Combine(workdir string, documents []string) (string, error) {
	if len(documents) == 0 {
		return "", services.Fail(services.ErrAggregation, stage, "Combine", "no metadata documents found", nil).
			WithPath(workdir).
			WithHint("the archive must contain at least one .xml metadata file")
	}

	target := filepath.Join(workdir, CombinedFile)
	file, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o644)
	if err != nil {
		return "", services.Wrap(services.ErrAggregation, stage, "Combine", "create combined record", err)
	}
	w := bufio.NewWriter(file)
	w.WriteString(combinedProlog)
	w.WriteString(rootOpen)
	for _, doc := range documents {
		body, err := os.ReadFile(doc)
		if err != nil {
			file.Close()
			return "", services.Fail(services.ErrAggregation, stage, "Combine", "read metadata document", err).WithPath(doc)
		}
		w.Write(StripDeclarations(body))
	}
	w.WriteString(rootClose)
	if err := w.Flush(); err != nil {
		file.Close()
		return "", services.Wrap(services.ErrAggregation, stage, "Combine", "write combined record", err)
	}
	if err := file.Close(); err != nil {
		return "", services.Wrap(services.ErrAggregation, stage, "Combine", "close combined record", err)
	}
	return target, nil
}

// StripDeclarations removes a leading byte order mark and every
// <?xml ...?> processing instruction from body.
func StripDeclarations(body []byte) []byte {
	body = bytes.TrimPrefix(body, utf8BOM)
	return declarationPattern.ReplaceAll(body, nil)
}

// Aggregator partitions and combines a working directory.
type Aggregator struct {
	logger *slog.Logger
}

// NewAggregator constructs an Aggregator.
func NewAggregator(logger *slog.Logger) *Aggregator {
	return &Aggregator{logger: logging.NewComponentLogger(logger, "bundle")}
}

// Aggregate partitions workdir and writes the combined record. More than one
// metadata document is logged but not treated as a failure.
func (a *Aggregator) Aggregate(workdir string) (Result, error) {
	contents, err := Partition(workdir)
	if err != nil {
		return Result{}, err
	}
	if len(contents.Documents) > 1 {
		logging.WarnWithContext(a.logger, "multiple metadata documents; combining all", "multiple_metadata_documents",
			logging.Int("documents", len(contents.Documents)),
			logging.String("workdir", workdir),
			logging.String(logging.FieldImpact, "combined record holds every document in walk order"),
			logging.String(logging.FieldErrorHint, "verify the transformed record picks the intended document"),
		)
	}
	combined, err := Combine(workdir, contents.Documents)
	if err != nil {
		return Result{}, err
	}
	a.logger.Info("metadata combined",
		logging.String(logging.FieldEventType, "metadata_combined"),
		logging.Int("documents", len(contents.Documents)),
		logging.Int("resources", len(contents.Resources)),
	)
	return Result{CombinedPath: combined, Contents: contents}, nil
}
