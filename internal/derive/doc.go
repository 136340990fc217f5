// Package derive 定义派生资源的种类（缩略图、文档渲染）以及生成它们的外部工具。
//
// 每个种类由一条 Spec 描述：URL 标记后缀、缓存子目录、缓存文件后缀与输出方式。
// 新增种类只需要注册一条 Spec，并在启动时为其提供一个 Tool。
package derive
