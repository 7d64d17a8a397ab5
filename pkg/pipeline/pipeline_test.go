package pipeline_test

import (
	"context"
	"testing"

	"github.com/SkyAerope/Brainpile/pkg/media"
	"github.com/SkyAerope/Brainpile/pkg/pipeline"
	"github.com/SkyAerope/Brainpile/pkg/types"
	"github.com/SkyAerope/Brainpile/testutil/mocks"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestPipeline_Run_Image(t *testing.T) {
	transport := &mocks.MockTelegramClient{}
	store := &mockStore{}
	text := &mockTextEmbedder{}
	visual := &mockVisualEmbedder{}
	ocr := &mockOCR{}
	images := &mockImageProcessor{}
	items := &mocks.MockItemRepository{}

	fileBytes := []byte("jpeg-bytes")
	transport.On("GetFile", context.Background(), "file-1").Return("photos/file-1.jpg", fileBytes, nil)
	store.On("Put", context.Background(), mock.AnythingOfType("string"), fileBytes, "image/jpeg").Return(nil)
	images.On("Decode", fileBytes).Return(media.ImageMeta{Width: 100, Height: 200, FileSize: int64(len(fileBytes))}, nil)
	images.On("Thumbnail", fileBytes).Return([]byte("thumb-bytes"), nil)
	store.On("Put", context.Background(), mock.AnythingOfType("string"), []byte("thumb-bytes"), "image/jpeg").Return(nil)
	ocr.On("Recognize", context.Background(), fileBytes).Return("识别的文字", nil)
	visual.On("EmbedImage", context.Background(), fileBytes).Return([]float32{0.1, 0.2}, nil)
	text.On("Embed", context.Background(), "识别的文字").Return([]float32{0.3, 0.4}, nil)
	items.On("Create", context.Background(), mock.AnythingOfType("*types.Item")).Return(int64(42), nil)

	p := pipeline.New(pipeline.Dependencies{
		Transport: transport,
		Store:     store,
		Text:      text,
		Visual:    visual,
		OCR:       ocr,
		Images:    images,
		Items:     items,
	})

	task := &types.Task{
		Payload: types.TaskPayload{FileID: "file-1", ItemType: types.ItemTypeImage},
	}

	id, err := p.Run(context.Background(), task)
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	items.AssertExpectations(t)
	transport.AssertExpectations(t)
	store.AssertExpectations(t)
	images.AssertExpectations(t)
	ocr.AssertExpectations(t)
	visual.AssertExpectations(t)
	text.AssertExpectations(t)
}

func TestPipeline_Run_TextOnly(t *testing.T) {
	text := &mockTextEmbedder{}
	items := &mocks.MockItemRepository{}

	text.On("Embed", context.Background(), "a plain note").Return([]float32{0.5}, nil)
	items.On("Create", context.Background(), mock.AnythingOfType("*types.Item")).Return(int64(7), nil)

	p := pipeline.New(pipeline.Dependencies{
		Text:  text,
		Items: items,
	})

	task := &types.Task{
		Payload: types.TaskPayload{ItemType: types.ItemTypeText, ContentText: "a plain note"},
	}

	id, err := p.Run(context.Background(), task)
	require.NoError(t, err)
	assert.Equal(t, int64(7), id)

	expectedHash := pipeline.ContentHash(nil, "a plain note")
	createdItem := items.Calls[0].Arguments.Get(1).(*types.Item)
	assert.Equal(t, expectedHash, createdItem.ContentHash)

	items.AssertExpectations(t)
	text.AssertExpectations(t)
}

func TestPipeline_Run_AttachesInheritedTags(t *testing.T) {
	text := &mockTextEmbedder{}
	items := &mocks.MockItemRepository{}

	text.On("Embed", context.Background(), "tagged note").Return([]float32{0.1}, nil)
	items.On("Create", context.Background(), mock.AnythingOfType("*types.Item")).Return(int64(9), nil)
	items.On("AttachTags", context.Background(), int64(9), []int32{1, 2}).Return(nil)

	p := pipeline.New(pipeline.Dependencies{Text: text, Items: items})

	task := &types.Task{
		Payload: types.TaskPayload{ItemType: types.ItemTypeText, ContentText: "tagged note", TagIDs: []int32{1, 2}},
	}

	_, err := p.Run(context.Background(), task)
	require.NoError(t, err)
	items.AssertExpectations(t)
}
