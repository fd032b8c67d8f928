package libraries

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLibraryNameFromPath(t *testing.T) {
	assert.Equal(t, "weapons", libraryNameFromPath("weapons.yaml"))
	assert.Equal(t, "armor", libraryNameFromPath("./catalogs/armor.json"))
	assert.Equal(t, "props.v2", libraryNameFromPath("/srv/props.v2.yml"))
	assert.Equal(t, "plain", libraryNameFromPath("plain"))
}

func TestIDList_Rows(t *testing.T) {
	rows := idList{"sword", "axe"}.Rows()
	assert.Equal(t, [][]string{{"0", "sword"}, {"1", "axe"}}, rows)
}

func TestServerStatus_Rows(t *testing.T) {
	st := serverStatus{Server: "http://localhost:8080", Ready: false, Reason: "loader missing", Pending: 3}
	rows := st.Rows()
	assert.Len(t, rows, 1)
	assert.Equal(t, "no (loader missing)", rows[0][1])
	assert.Equal(t, "3", rows[0][2])
	assert.Equal(t, "-", rows[0][5])
}
