package main

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/hygienequest/dashboard/internal/export"
)

func TestDataTypeLabel(t *testing.T) {
	require.Equal(t, export.DataAttendance, dataTypeLabel("attendance"))
	require.Equal(t, export.DataAttendance, dataTypeLabel(""))
	require.Equal(t, export.DataUsers, dataTypeLabel("users"))
	require.Equal(t, export.DataUsers, dataTypeLabel("USER"))
}
