package dism

import (
	"errors"
	"io"
	"testing"
	"unicode/utf16"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewExecDefaults(t *testing.T) {
	e := NewExec("", 0, nil)
	assert.Equal(t, DefaultBinary, e.Binary)
	assert.Equal(t, DefaultTimeout, e.Timeout)
	assert.NotNil(t, e.Log)
}

func TestArgs(t *testing.T) {
	const image = `C:\modwin\PATH`

	tests := []struct {
		name string
		got  []string
		want []string
	}{
		{"apps", GetAppsArgs(image), []string{`/Image:C:\modwin\PATH`, "/Get-ProvisionedAppxPackages"}},
		{"packages", GetPackagesArgs(image), []string{`/Image:C:\modwin\PATH`, "/Get-Packages"}},
		{"drivers", GetDriversArgs(image), []string{`/Image:C:\modwin\PATH`, "/Get-Drivers"}},
		{"features", GetFeaturesArgs(image), []string{`/Image:C:\modwin\PATH`, "/Get-Features"}},
		{"wiminfo", GetWimInfoArgs(`D:\sources\install.wim`), []string{"/Get-WimInfo", `/WimFile:D:\sources\install.wim`}},
		{"remove app", RemoveAppArgs(image, "Clipchamp.Clipchamp_2.2.8.0_neutral_~_yxz26nhyzhsrt"), []string{`/Image:C:\modwin\PATH`, "/Remove-ProvisionedAppxPackage", "/PackageName:Clipchamp.Clipchamp_2.2.8.0_neutral_~_yxz26nhyzhsrt"}},
		{"remove package", RemovePackageArgs(image, "Foo~1"), []string{`/Image:C:\modwin\PATH`, "/Remove-Package", "/PackageName:Foo~1"}},
		{"remove driver", RemoveDriverArgs(image, "oem1.inf"), []string{`/Image:C:\modwin\PATH`, "/Remove-Driver", "/Driver:oem1.inf"}},
		{"enable without source", EnableFeatureArgs(image, "NetFx3", ""), []string{`/Image:C:\modwin\PATH`, "/Enable-Feature", "/FeatureName:NetFx3", "/All"}},
		{"enable with source", EnableFeatureArgs(image, "NetFx3", `D:\sources\sxs`), []string{`/Image:C:\modwin\PATH`, "/Enable-Feature", "/FeatureName:NetFx3", "/All", `/Source:D:\sources\sxs`, "/LimitAccess"}},
		{"disable", DisableFeatureArgs(image, "SMB1Protocol"), []string{`/Image:C:\modwin\PATH`, "/Disable-Feature", "/FeatureName:SMB1Protocol"}},
		{"add app", AddAppArgs(image, `D:\apps\Calc.msixbundle`), []string{`/Image:C:\modwin\PATH`, "/Add-ProvisionedAppxPackage", `/PackagePath:D:\apps\Calc.msixbundle`, "/SkipLicense"}},
		{"add package", AddPackageArgs(image, `C:\tmp\x`, `C:\tmp\scratch`), []string{`/Image:C:\modwin\PATH`, "/Add-Package", `/PackagePath:C:\tmp\x`, `/ScratchDir:C:\tmp\scratch`}},
		{"add package without scratch", AddPackageArgs(image, `D:\kb.msu`, ""), []string{`/Image:C:\modwin\PATH`, "/Add-Package", `/PackagePath:D:\kb.msu`}},
		{"add driver", AddDriverArgs(image, `C:\tmp\x`, `C:\tmp\scratch`), []string{`/Image:C:\modwin\PATH`, "/Add-Driver", `/Driver:C:\tmp\x`, "/Recurse", `/ScratchDir:C:\tmp\scratch`}},
		{"expand", ExpandArgs(`D:\kb.cab`, `C:\tmp\x`), []string{"-f:*", `D:\kb.cab`, `C:\tmp\x`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}
}

func TestNewExpandExecDefaults(t *testing.T) {
	e := NewExpandExec("", 0, nil)
	assert.Equal(t, DefaultExpandBinary, e.Binary)
	assert.Equal(t, DefaultExpandTimeout, e.Timeout)
	assert.NotNil(t, e.Log)
}

func TestCaptureError_IncludesStdout(t *testing.T) {
	exitErr := errors.New("exit status 87")
	stdout := []byte("Deployment Image Servicing and Management tool\r\n\r\nError: 87\r\n\r\nThe /Image option is not recognized in this context.\r\n")

	err := captureError(GetPackagesArgs(`C:\mnt`), exitErr, stdout, nil)
	assert.ErrorIs(t, err, exitErr)
	assert.Contains(t, err.Error(), `dism /Image:C:\mnt /Get-Packages failed: exit status 87`)
	assert.Contains(t, err.Error(), "The /Image option is not recognized in this context.")
	assert.NotContains(t, err.Error(), "Stderr:")

	err = captureError(GetPackagesArgs(`C:\mnt`), exitErr, nil, []byte("access denied\n"))
	assert.Contains(t, err.Error(), "Stderr: access denied")
}

func utf16LE(s string) []byte {
	out := []byte{0xFF, 0xFE}
	for _, u := range utf16.Encode([]rune(s)) {
		out = append(out, byte(u), byte(u>>8))
	}
	return out
}

func TestDecode_UTF16WithBOM(t *testing.T) {
	raw := utf16LE("Feature Name : NetFx3\r\nState : Enabled\r\n")

	out := NewCollection()
	require.NoError(t, ParseFeatures(Decode(raw), out))
	assert.Equal(t, []Record{{Identifier: "NetFx3", State: "Enabled"}}, out.Records())
}

func TestDecode_PassesThroughUTF8(t *testing.T) {
	got, err := io.ReadAll(Decode([]byte("PackageName : Microsoft.BingNews\r\n")))
	require.NoError(t, err)
	assert.Equal(t, "PackageName : Microsoft.BingNews\r\n", string(got))
}
