package buildinfo

import (
	"strings"
	"testing"
)

func TestGet(t *testing.T) {
	info := Get()
	if info.Version != Version || info.Commit != Commit || info.Date != Date {
		t.Errorf("Get() = %+v", info)
	}
	if !strings.HasPrefix(info.GoVersion, "go") {
		t.Errorf("GoVersion = %q", info.GoVersion)
	}
	if !strings.Contains(String(), "version: "+Version) {
		t.Errorf("String() = %q", String())
	}
	if !strings.Contains(Template(), "{{.Name}}") {
		t.Errorf("Template() = %q", Template())
	}
}
