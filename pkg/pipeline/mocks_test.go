package pipeline_test

import (
	"context"

	"github.com/SkyAerope/Brainpile/pkg/media"

	"github.com/stretchr/testify/mock"
)

type mockStore struct{ mock.Mock }

func (m *mockStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	args := m.Called(ctx, key, data, contentType)
	return args.Error(0)
}

type mockTextEmbedder struct{ mock.Mock }

func (m *mockTextEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

type mockVisualEmbedder struct{ mock.Mock }

func (m *mockVisualEmbedder) EmbedImage(ctx context.Context, data []byte) ([]float32, error) {
	args := m.Called(ctx, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]float32), args.Error(1)
}

type mockOCR struct{ mock.Mock }

func (m *mockOCR) Recognize(ctx context.Context, jpegData []byte) (string, error) {
	args := m.Called(ctx, jpegData)
	return args.String(0), args.Error(1)
}

type mockImageProcessor struct{ mock.Mock }

func (m *mockImageProcessor) Decode(data []byte) (media.ImageMeta, error) {
	args := m.Called(data)
	return args.Get(0).(media.ImageMeta), args.Error(1)
}

func (m *mockImageProcessor) Thumbnail(data []byte) ([]byte, error) {
	args := m.Called(data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

type mockVideoProcessor struct{ mock.Mock }

func (m *mockVideoProcessor) Probe(ctx context.Context, data []byte) (media.VideoMeta, error) {
	args := m.Called(ctx, data)
	return args.Get(0).(media.VideoMeta), args.Error(1)
}

func (m *mockVideoProcessor) ExtractCoverFrame(ctx context.Context, data []byte) ([]byte, error) {
	args := m.Called(ctx, data)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}
