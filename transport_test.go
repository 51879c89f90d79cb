package rak811_test

import (
	"errors"
	"io"
	"testing"

	"go.uber.org/mock/gomock"

	"github.com/edgekit/rak811"
)

func TestSerialDialer(t *testing.T) {
	t.Run("requires a port name", func(t *testing.T) {
		_, err := rak811.SerialDialer{}.Dial()
		if err == nil {
			t.Error("expected error for empty port name")
		}
	})
}

func TestOpenDialsTransport(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		mockTransport := rak811.NewMockTransport(ctrl)
		mockDialer := rak811.NewMockDialer(ctrl)

		mockDialer.EXPECT().Dial().Return(mockTransport, nil)
		mockTransport.EXPECT().Read(gomock.Any()).Return(0, io.EOF).AnyTimes()
		mockTransport.EXPECT().Close().Return(nil)

		config, err := rak811.NewConfigBuilder().
			WithDialer(mockDialer).
			Build()
		if err != nil {
			t.Fatalf("unexpected error from Build(): %v", err)
		}

		conn, err := rak811.Open(config)
		if err != nil {
			t.Fatalf("unexpected error from Open(): %v", err)
		}
		if err := conn.Close(); err != nil {
			t.Errorf("unexpected error from Close(): %v", err)
		}
	})

	t.Run("dial failure", func(t *testing.T) {
		ctrl := gomock.NewController(t)
		defer ctrl.Finish()

		dialErr := errors.New("port busy")
		mockDialer := rak811.NewMockDialer(ctrl)
		mockDialer.EXPECT().Dial().Return(nil, dialErr)

		config, err := rak811.NewConfigBuilder().
			WithDialer(mockDialer).
			Build()
		if err != nil {
			t.Fatalf("unexpected error from Build(): %v", err)
		}

		if _, err := rak811.Open(config); !errors.Is(err, dialErr) {
			t.Errorf("expected dial error, got %v", err)
		}
	})
}
