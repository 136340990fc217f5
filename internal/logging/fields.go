package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// RequestFields 描述一次请求的分类结果，class 为路由分类标签（dir/txt/bin，派生分支为种类名）。
func RequestFields(requestID, class, path string, cacheHit bool) logrus.Fields {
	return logrus.Fields{
		"request_id": requestID,
		"class":      class,
		"path":       path,
		"cache_hit":  cacheHit,
	}
}
