package indexer

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"go.uber.org/mock/gomock"

	"ragdemo/internal/vectorstore"
	"ragdemo/internal/vectorstore/mocks"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

// fakeVectors returns one 3-dimensional vector per text.
func fakeVectors(_ context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{float32(i), 1, 0}
	}
	return out, nil
}

func TestPipeline_IndexDir(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "# Alpha\n\nFirst file.\n")
	writeFile(t, root, "b/b.md", "# Beta\n\nOne.\n\n## More\n\nTwo.\n")
	writeFile(t, root, "empty.md", "")

	ctrl := gomock.NewController(t)
	embedder := mocks.NewMockBatchEmbedder(ctrl)
	store := mocks.NewMockWriter(ctrl)

	var upserted []vectorstore.Point
	gomock.InOrder(
		embedder.EXPECT().EmbedTexts(gomock.Any(), []string{"First file."}).DoAndReturn(fakeVectors),
		store.EXPECT().EnsureCollection(gomock.Any(), "docs", 3).Return(nil),
		store.EXPECT().DeleteByField(gomock.Any(), "docs", FieldSource, "a.md").Return(nil),
		store.EXPECT().Upsert(gomock.Any(), "docs", gomock.Any()).DoAndReturn(
			func(_ context.Context, _ string, points []vectorstore.Point) error {
				upserted = append(upserted, points...)
				return nil
			}),
		embedder.EXPECT().EmbedTexts(gomock.Any(), []string{"One.", "Two."}).DoAndReturn(fakeVectors),
		store.EXPECT().DeleteByField(gomock.Any(), "docs", FieldSource, "b/b.md").Return(nil),
		store.EXPECT().Upsert(gomock.Any(), "docs", gomock.Any()).DoAndReturn(
			func(_ context.Context, _ string, points []vectorstore.Point) error {
				upserted = append(upserted, points...)
				return nil
			}),
	)

	p := NewPipeline(embedder, store, "docs", WithWorkers(1))
	stats, err := p.IndexDir(context.Background(), root)
	if err != nil {
		t.Fatalf("IndexDir() error = %v", err)
	}

	want := Stats{Files: 3, EmptyFiles: 1, Chunks: 3}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}

	if len(upserted) != 3 {
		t.Fatalf("upserted %d points, want 3", len(upserted))
	}
	last := upserted[2]
	if last.ID != PointID("b/b.md", 1) {
		t.Errorf("point ID = %q, want %q", last.ID, PointID("b/b.md", 1))
	}
	wantMeta := map[string]any{
		FieldText:        "Two.",
		FieldSource:      "b/b.md",
		FieldTitle:       "Beta",
		FieldHeadingPath: "# Beta > ## More",
		FieldChunkIndex:  1,
	}
	for k, v := range wantMeta {
		if last.Meta[k] != v {
			t.Errorf("meta[%s] = %v, want %v", k, last.Meta[k], v)
		}
	}
}

func TestPipeline_Batching(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "doc.md", "# Doc\n\n"+strings.Repeat("word ", 400)+"\n")

	ctrl := gomock.NewController(t)
	embedder := mocks.NewMockBatchEmbedder(ctrl)
	store := mocks.NewMockWriter(ctrl)

	var batches []int
	embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).DoAndReturn(
		func(ctx context.Context, texts []string) ([][]float32, error) {
			batches = append(batches, len(texts))
			return fakeVectors(ctx, texts)
		}).Times(2)
	store.EXPECT().EnsureCollection(gomock.Any(), "docs", 3).Return(nil).Times(1)
	store.EXPECT().DeleteByField(gomock.Any(), "docs", FieldSource, "doc.md").Return(nil).Times(1)
	store.EXPECT().Upsert(gomock.Any(), "docs", gomock.Any()).Return(nil).Times(2)

	stats, err := NewPipeline(embedder, store, "docs", WithBatchSize(2)).IndexDir(context.Background(), root)
	if err != nil {
		t.Fatalf("IndexDir() error = %v", err)
	}
	if stats.Chunks != 3 {
		t.Fatalf("chunks = %d, want 3", stats.Chunks)
	}
	if len(batches) != 2 || batches[0] != 2 || batches[1] != 1 {
		t.Errorf("batch sizes = %v, want [2 1]", batches)
	}
}

func TestPipeline_FileFailureContinues(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "bad.md", "# Bad\n\nfails\n")
	writeFile(t, root, "good.md", "# Good\n\nworks\n")

	ctrl := gomock.NewController(t)
	embedder := mocks.NewMockBatchEmbedder(ctrl)
	store := mocks.NewMockWriter(ctrl)

	errEmbed := errors.New("embedding backend down")
	embedder.EXPECT().EmbedTexts(gomock.Any(), []string{"fails"}).Return(nil, errEmbed)
	embedder.EXPECT().EmbedTexts(gomock.Any(), []string{"works"}).DoAndReturn(fakeVectors)
	store.EXPECT().EnsureCollection(gomock.Any(), "docs", 3).Return(nil)
	store.EXPECT().DeleteByField(gomock.Any(), "docs", FieldSource, "good.md").Return(nil)
	store.EXPECT().Upsert(gomock.Any(), "docs", gomock.Any()).Return(nil)

	stats, err := NewPipeline(embedder, store, "docs").IndexDir(context.Background(), root)
	if !errors.Is(err, errEmbed) {
		t.Fatalf("IndexDir() error = %v, want wrapped %v", err, errEmbed)
	}
	if !strings.Contains(err.Error(), "bad.md") {
		t.Errorf("error %q does not name the failing file", err)
	}
	want := Stats{Files: 2, FailedFiles: 1, Chunks: 1}
	if stats != want {
		t.Errorf("stats = %+v, want %+v", stats, want)
	}
}

func TestPipeline_VectorSizeChange(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "# A\n\none\n")
	writeFile(t, root, "b.md", "# B\n\ntwo\n")

	ctrl := gomock.NewController(t)
	embedder := mocks.NewMockBatchEmbedder(ctrl)
	store := mocks.NewMockWriter(ctrl)

	embedder.EXPECT().EmbedTexts(gomock.Any(), []string{"one"}).Return([][]float32{{1, 2, 3}}, nil)
	embedder.EXPECT().EmbedTexts(gomock.Any(), []string{"two"}).Return([][]float32{{1, 2}}, nil)
	store.EXPECT().EnsureCollection(gomock.Any(), "docs", 3).Return(nil)
	store.EXPECT().DeleteByField(gomock.Any(), "docs", FieldSource, "a.md").Return(nil)
	store.EXPECT().Upsert(gomock.Any(), "docs", gomock.Any()).Return(nil)

	stats, err := NewPipeline(embedder, store, "docs", WithWorkers(1)).IndexDir(context.Background(), root)
	if err == nil || !strings.Contains(err.Error(), "embedding size changed") {
		t.Fatalf("IndexDir() error = %v, want size change error", err)
	}
	if stats.FailedFiles != 1 || stats.Chunks != 1 {
		t.Errorf("stats = %+v", stats)
	}
}

func TestPipeline_CustomTextField(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "# A\n\nbody\n")

	ctrl := gomock.NewController(t)
	embedder := mocks.NewMockBatchEmbedder(ctrl)
	store := mocks.NewMockWriter(ctrl)

	embedder.EXPECT().EmbedTexts(gomock.Any(), gomock.Any()).DoAndReturn(fakeVectors)
	store.EXPECT().EnsureCollection(gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	store.EXPECT().DeleteByField(gomock.Any(), gomock.Any(), gomock.Any(), gomock.Any()).Return(nil)
	store.EXPECT().Upsert(gomock.Any(), "docs", gomock.Any()).DoAndReturn(
		func(_ context.Context, _ string, points []vectorstore.Point) error {
			if points[0].Meta["content"] != "body" {
				t.Errorf("meta = %v, want text under content", points[0].Meta)
			}
			if _, ok := points[0].Meta[FieldText]; ok {
				t.Errorf("meta still has %q", FieldText)
			}
			return nil
		})

	if _, err := NewPipeline(embedder, store, "docs", WithTextField("content")).IndexDir(context.Background(), root); err != nil {
		t.Fatalf("IndexDir() error = %v", err)
	}
}

func TestPointID(t *testing.T) {
	a := PointID("guides/setup.md", 0)
	if a != PointID("guides/setup.md", 0) {
		t.Error("PointID() is not stable")
	}
	if a == PointID("guides/setup.md", 1) || a == PointID("guides/other.md", 0) {
		t.Error("PointID() collides")
	}
}
