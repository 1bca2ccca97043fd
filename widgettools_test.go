package widgettools

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-widgettools/pkg/mcpserver"
	"github.com/goliatone/go-widgettools/pkg/registry"
	"github.com/goliatone/go-widgettools/pkg/testsupport"
	"github.com/goliatone/go-widgettools/pkg/widgeterr"
	"github.com/goliatone/go-widgettools/pkg/widgets"
)

func quietLogger() *log.Logger {
	var buf bytes.Buffer
	return log.New(&buf)
}

func TestLoadTools(t *testing.T) {
	set, err := LoadTools("widgets", registry.WithLogger(quietLogger()))
	require.NoError(t, err)
	assert.Equal(t, []string{"create_event", "flight_tracker"}, set.Names())

	node, err := set.Call(context.Background(), "flight_tracker", testsupport.MustReadSample(t, "flight_tracker.json"))
	require.NoError(t, err)

	def := testsupport.MustLoadWidget(t, "Flight Tracker.widget")
	if diff := testsupport.CompareTree(def.Preview(), map[string]any(node)); diff != "" {
		t.Fatalf("rendered tree mismatch (-preview +rendered):\n%s", diff)
	}
}

func TestRegisterWidgetToolsReportsConfigErrors(t *testing.T) {
	set := registry.NewSet()
	_, err := RegisterWidgetTools(set, filepath.Join("testdata", "does-not-exist"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, widgeterr.ErrConfig))
	assert.Zero(t, set.Len())
}

func TestNewMCPServer(t *testing.T) {
	server, err := NewMCPServer("widgets", []mcpserver.Option{mcpserver.WithLogger(quietLogger())})
	require.NoError(t, err)
	require.Len(t, server.Tools(), 2)

	result, err := server.CallTool(context.Background(), "create_event", testsupport.MustReadSample(t, "create_event.json"))
	require.NoError(t, err)
	assert.False(t, result.IsError)
}

func TestRender(t *testing.T) {
	node, err := Render(context.Background(), filepath.Join("widgets", "Create Event.widget"), testsupport.MustReadSample(t, "create_event.json"))
	require.NoError(t, err)
	assert.Equal(t, "Card", node.Type())

	_, err = Render(context.Background(), filepath.Join("widgets", "Create Event.widget"), map[string]any{})
	require.Error(t, err)
	assert.Equal(t, widgeterr.KindValidation, widgeterr.KindOf(err))
}

func TestAliases(t *testing.T) {
	var def *Definition = &widgets.Definition{Name: "Flight Tracker"}
	assert.Equal(t, "flight_tracker", def.ToolName())
}
