package inventory

import (
	"context"
	"testing"

	"github.com/modwin/modwin/pkg/dism"
	"github.com/modwin/modwin/pkg/knowledge"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const appsOutput = `Deployment Image Servicing and Management tool
Version: 10.0.19041.844

Image Version: 10.0.19041.928

Obtaining list of provisioned appx packages...
DisplayName : Microsoft.BingNews
Version : 4.55.62231.0
Architecture : neutral
ResourceId : ~
PackageName : Microsoft.BingNews_4.55.62231.0_neutral_~_8wekyb3d8bbwe

DisplayName : Clipchamp.Clipchamp
Version : 2.2.8.0
Architecture : neutral
ResourceId : ~
PackageName : Clipchamp.Clipchamp_2.2.8.0_neutral_~_yxz26nhyzhsrt

The operation completed successfully.
`

const packagesOutput = `Packages listing:

Package Identity : Package_for_KB5001330~31bf3856ad364e35~amd64~~19041.928.1.3
State : Installed
Release Type : Security Update
Install Time : 4/13/2021 5:00 PM

Package Identity : Microsoft-Windows-Foo-Package~31bf3856ad364e35~amd64~~10.0
State : Superseded

Package Identity : Microsoft-Windows-Hello-Face-Package~31bf3856ad364e35~amd64~~10.0
State : Staged

The operation completed successfully.
`

const driversOutput = `Driver packages listing:

Published Name : oem1.inf
Original File Name : nvlddmkm.inf
Inbox : No
Class Name : Display
Provider Name : NVIDIA

The operation completed successfully.
`

const featuresOutput = `Features listing for package : Microsoft-Windows-Foundation-Package~31bf3856ad364e35~amd64~~10.0.19041.1

Feature Name : NetFx3
State : Disable Pending

Feature Name : Zzz-Custom-Feature
State : Enabled

The operation completed successfully.
`

func testResolver() *knowledge.Resolver {
	return knowledge.NewResolver(knowledge.NewMemoryStore([]knowledge.Entry{
		{Identifier: "Microsoft.BingNews", Description: "news", SafetyRating: knowledge.Safe, Category: "Bloatware"},
		{Identifier: "Package_for_KB", Description: "update [Source](https://www.catalog.update.microsoft.com/Search.aspx?q=)", SafetyRating: knowledge.Critical, Category: "System Core"},
		{Identifier: "NetFx3", Description: ".NET 3.5", SafetyRating: knowledge.Critical, Category: "Compatibility"},
	}))
}

func newTestScanner(t *testing.T) (*Scanner, *fakeRunner) {
	r := &fakeRunner{outputs: map[string]string{
		"/Get-ProvisionedAppxPackages": appsOutput,
		"/Get-Packages":                packagesOutput,
		"/Get-Drivers":                 driversOutput,
		"/Get-Features":                featuresOutput,
	}}
	return &Scanner{
		Runner:   r,
		Resolver: testResolver(),
		Repo:     NewRepository(),
		Image:    mountedImage(t),
	}, r
}

func names(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name
	}
	return out
}

func TestScanApps(t *testing.T) {
	s, _ := newTestScanner(t)
	items, err := s.ScanApps(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{
		"Clipchamp.Clipchamp_2.2.8.0_neutral_~_yxz26nhyzhsrt",
		"Microsoft.BingNews_4.55.62231.0_neutral_~_8wekyb3d8bbwe",
	}, names(items))
	assert.True(t, items[0].Info.IsDefault())
	assert.Equal(t, "Bloatware", items[1].Info.Category)
	assert.Equal(t, "BingNews", items[1].Title)
	assert.Equal(t, "", items[1].State)
	assert.Equal(t, items, s.Repo.Items(dism.KindApp))
}

func TestScanPackages(t *testing.T) {
	s, r := newTestScanner(t)
	items, err := s.ScanPackages(context.Background())
	require.NoError(t, err)

	require.Equal(t, []string{
		"Microsoft-Windows-Hello-Face-Package~31bf3856ad364e35~amd64~~10.0",
		"oem1.inf",
		"Package_for_KB5001330~31bf3856ad364e35~amd64~~19041.928.1.3",
	}, names(items))
	assert.Equal(t, "Staged", items[0].State)
	assert.Equal(t, "Driver (Display) - nvlddmkm.inf", items[1].State)
	assert.Equal(t, "Installed", items[2].State)
	assert.Contains(t, items[2].Info.Description, "q=KB5001330)")
	assert.Len(t, r.Calls(), 2)
	assert.Len(t, s.Repo.Items(dism.KindPackage), 3)
}

func TestScanPackages_CapturesOneAtATime(t *testing.T) {
	s, r := newTestScanner(t)
	_, err := s.ScanPackages(context.Background())
	require.NoError(t, err)

	calls := r.Calls()
	require.Len(t, calls, 2)
	assert.Contains(t, calls[0], "/Get-Packages")
	assert.Contains(t, calls[1], "/Get-Drivers")
	assert.False(t, r.Overlapped(), "dism captures must not run concurrently on one image")
}

func TestScanPackages_PackageFailureSkipsDrivers(t *testing.T) {
	s, r := newTestScanner(t)
	r.fail = map[string]error{"/Get-Packages": errDism}
	s.Repo.Replace(dism.KindPackage, []Item{{Name: "Keep~1"}})

	_, err := s.ScanPackages(context.Background())
	require.ErrorIs(t, err, errDism)
	assert.Len(t, r.Calls(), 1)
	assert.Len(t, s.Repo.Items(dism.KindPackage), 1, "previous list survives a failed scan")
}

func TestScanPackages_DriverWinsCollision(t *testing.T) {
	s, r := newTestScanner(t)
	r.outputs["/Get-Packages"] = "Package Identity : oem1.inf\nState : Installed\n"
	items, err := s.ScanPackages(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Driver (Display) - nvlddmkm.inf", items[0].State)
}

func TestScanFeatures(t *testing.T) {
	s, _ := newTestScanner(t)
	items, err := s.ScanFeatures(context.Background())
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, "NetFx3", items[0].Name)
	assert.Equal(t, "Disabled", items[0].State)
	assert.Equal(t, ".NET 3.5", items[0].Info.Description)

	assert.Equal(t, "Zzz-Custom-Feature", items[1].Name)
	assert.Equal(t, "Status: Enabled", items[1].Info.Description)
	assert.Equal(t, knowledge.Unknown, items[1].Info.SafetyRating)
	assert.Equal(t, "Zzz Custom Feature", items[1].Title)
}

func TestScan_NotMounted(t *testing.T) {
	s, r := newTestScanner(t)
	s.Image = t.TempDir()

	_, err := s.ScanApps(context.Background())
	assert.ErrorIs(t, err, ErrNotMounted)
	assert.Empty(t, r.Calls())

	s.Image = ""
	_, err = s.ScanFeatures(context.Background())
	assert.ErrorIs(t, err, ErrNotMounted)
}

func TestScan_CaptureFailureKeepsPreviousList(t *testing.T) {
	s, r := newTestScanner(t)
	_, err := s.ScanPackages(context.Background())
	require.NoError(t, err)

	r.fail = map[string]error{"/Get-Drivers": errDism}
	_, err = s.ScanPackages(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, errDism)
	assert.Contains(t, err.Error(), "scan packages and drivers")
	assert.Len(t, s.Repo.Items(dism.KindPackage), 3)
}

func TestScan_CancelledKeepsPreviousList(t *testing.T) {
	s, r := newTestScanner(t)
	_, err := s.ScanApps(context.Background())
	require.NoError(t, err)

	r.outputs["/Get-ProvisionedAppxPackages"] = "PackageName : Other_1.0_x64__abc\n"
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.ScanApps(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Len(t, s.Repo.Items(dism.KindApp), 2)
}

func TestAnnotate_NilResolver(t *testing.T) {
	coll := dism.NewCollection()
	coll.Put("b", "Enabled")
	coll.Put("A", "Disabled")

	s := &Scanner{}
	items := s.Annotate(context.Background(), dism.KindFeature, coll)
	require.Len(t, items, 2)
	assert.Equal(t, "A", items[0].Name)
	assert.Equal(t, "Status: Disabled", items[0].Info.Description)
	assert.Equal(t, knowledge.DefaultCategory, items[1].Info.Category)
}
