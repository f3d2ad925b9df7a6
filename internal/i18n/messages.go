package i18n

import "github.com/beduldjakurra/InjectSTO/internal/model"

// 附加消息键
const (
	MsgImageDownloaded = "image_downloaded"
	MsgDataSaved       = "data_saved"
	MsgDataImported    = "data_imported"
	MsgDataReset       = "data_reset"
	MsgSyncDone        = "sync_done"
	MsgImportStarted   = "import_started"
	MsgImportParsed    = "import_parsed"
)

var indonesian = map[string]string{
	model.MsgIndexOutOfRange: "Indeks %d di luar rentang 0 sampai %d.",
	model.MsgUnknownField:    "Kolom %q tidak dikenal.",
	model.MsgUnknownSheet:    "Sheet %v tidak dikenal.",
	model.MsgUnknownView:     "Tampilan %q tidak dikenal.",

	model.MsgNoFile:         "Tidak ada file yang dipilih.",
	model.MsgBadExtension:   "File harus berformat .xlsx atau .xls.",
	model.MsgFileTooLarge:   "Ukuran file terlalu besar. Maksimal %dMB.",
	model.MsgNoSheet:        "File Excel tidak memiliki sheet.",
	model.MsgNotEnoughRows:  "File Excel tidak memiliki data yang cukup.",
	model.MsgHeaderMismatch: "Format file Excel tidak sesuai. Pastikan kolom sesuai dengan template: %s",
	model.MsgNoValidRows:    "Tidak ada data valid yang dapat diimpor.",
	model.MsgReadFailed:     "Gagal membaca file Excel.",
	model.MsgNonNumericCell: "Nilai %q pada kolom %s bukan angka.",

	model.MsgImageGeneral:    "Gagal Mengkonversi: Terjadi kesalahan saat mengkonversi gambar.",
	model.MsgTableNotFound:   "Tabel %s tidak ditemukan. Pastikan Anda berada di halaman yang benar dan tabel telah dimuat.",
	model.MsgImageOffline:    "Anda sedang offline. Fitur ini memerlukan koneksi internet.",
	model.MsgImageColorParse: "Gagal Mengkonversi: Terjadi kesalahan pada parsing warna. Silakan refresh halaman dan coba lagi.",
	model.MsgImageTimeout:    "Gagal Mengkonversi: Proses konversi terlalu lama. Silakan coba lagi dengan koneksi yang lebih stabil.",
	model.MsgImageCanvas:     "Gagal Mengkonversi: Terjadi kesalahan saat rendering gambar. Pastikan tabel terlihat dengan baik di layar.",
	model.MsgImageEmpty:      "Gagal Mengkonversi: Tidak dapat menghasilkan gambar. Silakan refresh halaman dan coba lagi.",
	model.MsgImageUnknown:    "Gagal Mengkonversi: Terjadi kesalahan yang tidak diketahui.",

	model.MsgRemoteFailed: "Gagal menghubungi server data.",
	model.MsgNoSession:    "Belum ada sesi produksi yang aktif.",
	model.MsgSessionGone:  "Sesi %s tidak ditemukan.",

	MsgImageDownloaded: "JPG berhasil diunduh (%s MB)",
	MsgDataSaved:       "Data berhasil disimpan.",
	MsgDataImported:    "Data berhasil diimpor.",
	MsgDataReset:       "Data berhasil direset.",
	MsgSyncDone:        "Sinkronisasi selesai.",
	MsgImportStarted:   "Mulai impor %s",
	MsgImportParsed:    "%d baris valid dari sheet %s",
}

var english = map[string]string{
	model.MsgIndexOutOfRange: "Index %d is outside the range 0 to %d.",
	model.MsgUnknownField:    "Unknown field %q.",
	model.MsgUnknownSheet:    "Unknown sheet %v.",
	model.MsgUnknownView:     "Unknown view %q.",

	model.MsgNoFile:         "No file selected.",
	model.MsgBadExtension:   "The file must be .xlsx or .xls.",
	model.MsgFileTooLarge:   "The file is too large. Maximum %dMB.",
	model.MsgNoSheet:        "The workbook has no sheets.",
	model.MsgNotEnoughRows:  "The workbook does not contain enough data.",
	model.MsgHeaderMismatch: "Unexpected spreadsheet layout. Expected columns: %s",
	model.MsgNoValidRows:    "No valid rows to import.",
	model.MsgReadFailed:     "Failed to read the workbook.",
	model.MsgNonNumericCell: "Value %q in column %s is not a number.",

	model.MsgImageGeneral:    "Conversion failed: an error occurred while converting the image.",
	model.MsgTableNotFound:   "Table %s was not found.",
	model.MsgImageOffline:    "You are offline. This feature needs a connection to the renderer.",
	model.MsgImageColorParse: "Conversion failed: a color could not be parsed.",
	model.MsgImageTimeout:    "Conversion failed: rendering took too long.",
	model.MsgImageCanvas:     "Conversion failed: the table could not be rendered.",
	model.MsgImageEmpty:      "Conversion failed: no image was produced.",
	model.MsgImageUnknown:    "Conversion failed: unknown error.",

	model.MsgRemoteFailed: "Failed to reach the data server.",
	model.MsgNoSession:    "There is no active production session.",
	model.MsgSessionGone:  "Session %s not found.",

	MsgImageDownloaded: "JPG downloaded (%s MB)",
	MsgDataSaved:       "Data saved.",
	MsgDataImported:    "Data imported.",
	MsgDataReset:       "Data reset.",
	MsgSyncDone:        "Sync finished.",
	MsgImportStarted:   "Importing %s",
	MsgImportParsed:    "%d valid rows in sheet %s",
}
