// Package mocks provides mock implementations for testing the voicerelay pipeline.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for the
// core port interfaces. To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	fetcher := mocks.NewMockAudioFetcher(ctrl)
//	fetcher.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return("/tmp/a.wav", nil)
package mocks

// Generate mocks for the pipeline ports defined in internal/core.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=mocks -destination=core_mocks.go github.com/voicerelay/voicerelay/internal/core AudioFetcher,Transcriber,Generator,Deliverer,TaskSubmitter,ResultHandle,HistoryRepository
