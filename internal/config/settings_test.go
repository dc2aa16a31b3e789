package config

import (
	"path/filepath"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
	"github.com/spf13/afero"
	"github.com/spf13/viper"
)

func TestDefaultSettings(t *testing.T) {
	Convey("Default settings", t, func() {
		s := DefaultSettings()

		Convey("Should be valid", func() {
			So(s.Validate(), ShouldBeNil)
		})

		Convey("Should request the mid quality tier", func() {
			So(s.Download.Quality, ShouldEqual, "720p")
			So(s.Download.QualityEnabled, ShouldBeTrue)
		})

		Convey("Should poll every 30 seconds over socket.io", func() {
			So(s.Poll.Interval, ShouldEqual, 30*time.Second)
			So(s.Push.Transport, ShouldEqual, TransportSocketIO)
		})

		Convey("Should preserve last-write-wins progress by default", func() {
			So(s.Sync.Policy, ShouldEqual, PolicyLastWriteWins)
		})

		Convey("Should follow the log and keep the developer log off", func() {
			So(s.TUI.AutoFollow, ShouldBeTrue)
			So(s.Logs.Write, ShouldBeFalse)
		})
	})
}

func TestSetup(t *testing.T) {
	Convey("Config Setup", t, func() {
		dir := t.TempDir()
		t.Setenv("XDG_CONFIG_HOME", dir)
		fs := afero.NewMemMapFs()

		Convey("Should initialize without a settings file", func() {
			v := viper.New()
			So(Setup(v, fs), ShouldBeNil)

			s, err := LoadSettings(v)
			So(err, ShouldBeNil)
			So(s.Server.URL, ShouldEqual, "http://127.0.0.1:8091")
		})

		Convey("Should read settings.json from the config dir", func() {
			path := filepath.Join(dir, "ytclient", "settings.json")
			So(afero.WriteFile(fs, path, []byte(`{"server":{"url":"https://dl.example.com"},"poll":{"interval":"45s"}}`), 0o644), ShouldBeNil)

			v := viper.New()
			So(Setup(v, fs), ShouldBeNil)

			s, err := LoadSettings(v)
			So(err, ShouldBeNil)
			So(s.Server.URL, ShouldEqual, "https://dl.example.com")
			So(s.Poll.Interval, ShouldEqual, 45*time.Second)
		})

		Convey("Environment should override defaults", func() {
			t.Setenv("YTCLIENT_PUSH_TRANSPORT", "sse")
			t.Setenv("YTCLIENT_SYNC_POLICY", "monotonic")

			v := viper.New()
			So(Setup(v, fs), ShouldBeNil)

			s, err := LoadSettings(v)
			So(err, ShouldBeNil)
			So(s.Push.Transport, ShouldEqual, TransportSSE)
			So(s.Sync.Policy, ShouldEqual, PolicyMonotonic)
		})

		Convey("Should reject an unknown transport", func() {
			t.Setenv("YTCLIENT_PUSH_TRANSPORT", "carrier-pigeon")

			v := viper.New()
			So(Setup(v, fs), ShouldBeNil)

			_, err := LoadSettings(v)
			So(err, ShouldNotBeNil)
		})

		Convey("EnvKeyReplacer should convert dots to underscores", func() {
			So(EnvKeyReplacer.Replace("tui.auto_follow"), ShouldEqual, "tui_auto_follow")
			So(Field{Key: KeyTUIAutoFollow}.Env(), ShouldEqual, "YTCLIENT_TUI_AUTO_FOLLOW")
		})
	})
}

func TestWriteDefaults(t *testing.T) {
	Convey("WriteDefaults", t, func() {
		t.Setenv("XDG_CONFIG_HOME", t.TempDir())
		fs := afero.NewMemMapFs()

		path, err := WriteDefaults(fs)
		So(err, ShouldBeNil)
		So(path, ShouldEqual, GetSettingsPath())

		Convey("Written file should round-trip through Setup", func() {
			v := viper.New()
			So(Setup(v, fs), ShouldBeNil)
			s, err := LoadSettings(v)
			So(err, ShouldBeNil)
			So(s.Poll.Interval, ShouldEqual, 30*time.Second)
			So(s.Fetch.BufferSize, ShouldEqual, 512*KB)
		})

		Convey("Should refuse to overwrite an existing file", func() {
			_, err := WriteDefaults(fs)
			So(err, ShouldNotBeNil)
		})
	})
}

func TestSettingsMetadata(t *testing.T) {
	Convey("Every category has metadata and every key is listed once", t, func() {
		meta := GetSettingsMetadata()
		seen := map[string]bool{}
		for _, cat := range CategoryOrder() {
			So(meta[cat], ShouldNotBeEmpty)
			for _, m := range meta[cat] {
				So(seen[m.Key], ShouldBeFalse)
				seen[m.Key] = true
				So(m.Type, ShouldNotEqual, "unknown")
			}
		}
		So(len(seen), ShouldEqual, len(Fields()))
	})
}

func TestSettingsValues(t *testing.T) {
	Convey("Values covers every registered key with its default", t, func() {
		values := DefaultSettings().Values()
		So(len(values), ShouldEqual, len(Fields()))
		for _, f := range Fields() {
			v, ok := values[f.Key]
			So(ok, ShouldBeTrue)
			So(v, ShouldEqual, f.Value)
		}
	})
}
