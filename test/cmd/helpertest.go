package cmd

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/adsdrill/drillctl/internal/cmd/common"
	"github.com/adsdrill/drillctl/internal/config"
	"github.com/adsdrill/drillctl/internal/dataset"
	"github.com/adsdrill/drillctl/internal/iostreams"
	"github.com/adsdrill/drillctl/internal/meta"
)

type MockHelper struct {
	GetCmdMock          func() *cobra.Command
	GetArgsMock         func() []string
	GetStreamsMock      func() *iostreams.IOStreams
	GetConfigMock       func() (config.Hook, error)
	GetOutputFormatMock func() (common.OutputFormat, error)
	GetColorModeMock    func() (common.ColorMode, error)
	GetLoggerMock       func() (*slog.Logger, error)
	GetBuildInfoMock    func() (*meta.BuildInfo, error)
	GetContextMock      func() context.Context
	OpenLoadersMock     func() (dataset.Loaders, io.Closer, error)
}

func (m *MockHelper) GetCmd() *cobra.Command {
	if m.GetCmdMock == nil {
		return nil
	}
	return m.GetCmdMock()
}

func (m *MockHelper) GetArgs() []string {
	if m.GetArgsMock == nil {
		return nil
	}
	return m.GetArgsMock()
}

func (m *MockHelper) GetStreams() *iostreams.IOStreams {
	return m.GetStreamsMock()
}

func (m *MockHelper) GetConfig() (config.Hook, error) {
	return m.GetConfigMock()
}

func (m *MockHelper) GetOutputFormat() (common.OutputFormat, error) {
	return m.GetOutputFormatMock()
}

func (m *MockHelper) GetColorMode() (common.ColorMode, error) {
	if m.GetColorModeMock == nil {
		return common.ColorModeNever, nil
	}
	return m.GetColorModeMock()
}

func (m *MockHelper) GetLogger() (*slog.Logger, error) {
	return m.GetLoggerMock()
}

func (m *MockHelper) GetBuildInfo() (*meta.BuildInfo, error) {
	return m.GetBuildInfoMock()
}

func (m *MockHelper) GetContext() context.Context {
	if m.GetContextMock == nil {
		return context.Background()
	}
	return m.GetContextMock()
}

func (m *MockHelper) OpenLoaders() (dataset.Loaders, io.Closer, error) {
	if m.OpenLoadersMock == nil {
		return dataset.NewLoaders(dataset.Embedded(), dataset.DefaultLayout), io.NopCloser(nil), nil
	}
	return m.OpenLoadersMock()
}
